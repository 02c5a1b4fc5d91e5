// Package session holds the client's conversational state: who is
// authenticated, the append-only transcript, and the staging area for a
// two-phase voice registration. All mutation goes through the transition
// methods so the invariants stay in one place.
package session

import (
	"errors"
	"strings"

	"github.com/jwulff/voxchat/internal/audio"
)

// Local failures resolved before any network call is issued.
var (
	// ErrNotAuthenticated is returned when a chat message is submitted
	// without a credential.
	ErrNotAuthenticated = errors.New("not authenticated: voice login required")

	// ErrInvalidInput is returned when a required field is empty or a
	// required captured clip is missing.
	ErrInvalidInput = errors.New("invalid input")
)

// Role labels a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. Immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// AuthStatus tracks where the user is in the voice-login lifecycle.
type AuthStatus int

const (
	StatusAnonymous AuthStatus = iota
	StatusAwaitingVoiceSample
	StatusAuthenticating
	StatusAuthenticated
	StatusRegistrationCaptured
	StatusAuthFailed
)

// String returns a short label for status lines.
func (s AuthStatus) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAwaitingVoiceSample:
		return "recording voice sample"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRegistrationCaptured:
		return "registration captured"
	case StatusAuthFailed:
		return "authentication failed"
	}
	return "unknown"
}

// PendingRegistration stages a captured voice sample until the user confirms
// enrollment. It exists only between stopRegister and a successful confirm
// or an explicit discard.
type PendingRegistration struct {
	Username string
	Clip     *audio.Clip
}

// Session is the single process-wide aggregate. Exactly one exists per
// client instance; it starts anonymous on every launch. The credential is
// deliberately never persisted across restarts.
type Session struct {
	token      string
	username   string
	status     AuthStatus
	failReason string
	transcript []Message
	pending    *PendingRegistration
}

// New returns an anonymous session with an empty transcript.
func New() *Session {
	return &Session{status: StatusAnonymous}
}

// Status returns the current authentication status.
func (s *Session) Status() AuthStatus { return s.status }

// FailReason returns the detail of the last login failure, if any.
func (s *Session) FailReason() string { return s.failReason }

// Token returns the bearer credential, empty until a login succeeds.
func (s *Session) Token() string { return s.token }

// Username returns the authenticated username, empty while anonymous.
func (s *Session) Username() string { return s.username }

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool { return s.token != "" }

// Transcript returns the ordered message log. Callers must not mutate it.
func (s *Session) Transcript() []Message { return s.transcript }

// Pending returns the staged registration, nil if none.
func (s *Session) Pending() *PendingRegistration { return s.pending }

// BeginLogin marks that a login voice sample is being captured.
func (s *Session) BeginLogin() {
	s.status = StatusAwaitingVoiceSample
	s.failReason = ""
}

// SubmitLogin marks that the captured sample is on its way to the voice-auth
// service.
func (s *Session) SubmitLogin() {
	s.status = StatusAuthenticating
}

// LoginSucceeded stores the credential. This is the only transition that
// ever sets the token.
func (s *Session) LoginSucceeded(token, username string) {
	s.token = token
	s.username = username
	s.status = StatusAuthenticated
	s.failReason = ""
}

// LoginFailed records the failure detail. The credential stays unset and
// the user may retry indefinitely.
func (s *Session) LoginFailed(detail string) {
	s.token = ""
	s.username = ""
	s.status = StatusAuthFailed
	s.failReason = detail
}

// CaptureRegistration stages a registration clip for preview and confirm.
func (s *Session) CaptureRegistration(clip *audio.Clip) {
	s.pending = &PendingRegistration{Clip: clip}
	s.status = StatusRegistrationCaptured
}

// ConfirmRegistration validates the inputs for enrollment. It returns
// ErrInvalidInput when the username is blank or no clip was captured; in
// that case no network call may be issued. On nil the caller sends the
// staged clip to the enroll endpoint.
func (s *Session) ConfirmRegistration(username string) error {
	username = strings.TrimSpace(username)
	if username == "" || s.pending == nil || s.pending.Clip == nil {
		return ErrInvalidInput
	}
	s.pending.Username = username
	return nil
}

// RegistrationSucceeded clears the staging area after a successful enroll.
func (s *Session) RegistrationSucceeded() {
	s.pending = nil
	if s.status == StatusRegistrationCaptured {
		s.status = StatusAnonymous
	}
}

// RegistrationFailed keeps the staged clip so the user can retry the
// confirm without re-recording.
func (s *Session) RegistrationFailed() {}

// DiscardRegistration drops the staged clip without enrolling.
func (s *Session) DiscardRegistration() {
	s.pending = nil
	if s.status == StatusRegistrationCaptured {
		s.status = StatusAnonymous
	}
}

// PrepareSend validates a chat submission. It returns the trimmed text, or
// ErrInvalidInput for blank text, or ErrNotAuthenticated when no credential
// is held. Nothing is appended and no network call may be issued on error.
func (s *Session) PrepareSend(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidInput
	}
	if !s.Authenticated() {
		return "", ErrNotAuthenticated
	}
	return text, nil
}

// AppendUser appends a user message. Called optimistically, before the chat
// round-trip resolves: a failed call leaves the user message in place.
func (s *Session) AppendUser(content string) {
	s.transcript = append(s.transcript, Message{Role: RoleUser, Content: content})
}

// AppendAssistant appends an assistant message. Chat failures are appended
// through this same path so errors stay visible in-line.
func (s *Session) AppendAssistant(content string) {
	s.transcript = append(s.transcript, Message{Role: RoleAssistant, Content: content})
}

// AppendSystem appends a system status message.
func (s *Session) AppendSystem(content string) {
	s.transcript = append(s.transcript, Message{Role: RoleSystem, Content: content})
}
