package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jwulff/voxchat/internal/api"
	"github.com/jwulff/voxchat/internal/audio"
	"github.com/jwulff/voxchat/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeService records calls and returns scripted results.
type fakeService struct {
	mu sync.Mutex

	transcribeText string
	transcribeErr  error
	loginResult    api.LoginResult
	loginErr       error
	enrollErr      error
	deleteErr      error
	chatReply      string
	chatErr        error
	synthErr       error

	chatMessages []string
	chatTokens   []string
	synthTexts   []string
	enrollCalls  int
	deleteCalls  int
}

func (f *fakeService) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	return f.transcribeText, f.transcribeErr
}

func (f *fakeService) Enroll(ctx context.Context, username string, clip *audio.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	return f.enrollErr
}

func (f *fakeService) Login(ctx context.Context, clip *audio.Clip) (api.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeService) DeleteUser(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeService) Chat(ctx context.Context, token, sessionID, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatMessages = append(f.chatMessages, message)
	f.chatTokens = append(f.chatTokens, token)
	return f.chatReply, f.chatErr
}

func (f *fakeService) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthTexts = append(f.synthTexts, text)
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &audio.Clip{Data: []byte("mp3"), MIME: "audio/mpeg"}, nil
}

// fakeStream blocks after its data is drained, until closed.
type fakeStream struct {
	mu     sync.Mutex
	data   []byte
	closed bool
	wait   chan struct{}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if len(s.data) > 0 {
		n := copy(p, s.data)
		s.data = s.data[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()
	<-s.wait
	return 0, io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.wait)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeBackend struct {
	mu      sync.Mutex
	streams []*fakeStream
}

func (b *fakeBackend) Start() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &fakeStream{data: []byte("sample"), wait: make(chan struct{})}
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) MIME() string { return "audio/wav" }

type fakePlayer struct {
	mu    sync.Mutex
	plays int
	fail  error
}

func (p *fakePlayer) Play(clip *audio.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return p.fail
}

func newTestModel(svc *fakeService) (Model, *fakeBackend, *fakePlayer) {
	backend := &fakeBackend{}
	player := &fakePlayer{}
	m := New(Options{
		Service:   svc,
		Recorder:  audio.NewRecorder(backend),
		Player:    player,
		SessionID: "sess-1",
	})
	m.width = 80
	m.height = 24
	return m, backend, player
}

// runCmd executes a command tree synchronously and collects its messages.
// Tick commands must not be passed here.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func authenticate(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(loginResultMsg{Result: api.LoginResult{Token: "jwt-abc", Username: "alice"}})
	model := updated.(Model)
	if !model.Session().Authenticated() {
		t.Fatal("login result should authenticate the session")
	}
	return model
}

func TestSendWhileUnauthenticated(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)

	updated, _ := m.sendText("hello")
	model := updated.(Model)

	if len(svc.chatMessages) != 0 {
		t.Error("no chat call may be issued while unauthenticated")
	}
	if len(model.Session().Transcript()) != 0 {
		t.Error("transcript must gain no entries")
	}
	if model.statusText == "" {
		t.Error("the rejection must be surfaced to the user")
	}
}

func TestLoginSuccess(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)

	updated, _ := m.Update(loginResultMsg{Result: api.LoginResult{Token: "jwt-abc", Username: "alice"}})
	model := updated.(Model)

	sess := model.Session()
	if sess.Status() != session.StatusAuthenticated {
		t.Errorf("status = %v", sess.Status())
	}
	if sess.Token() != "jwt-abc" {
		t.Errorf("token = %q, want the exact returned token", sess.Token())
	}
	if sess.Username() != "alice" {
		t.Errorf("username = %q", sess.Username())
	}
}

func TestLoginFailure(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)

	updated, _ := m.Update(loginResultMsg{Err: errors.New("Voice not recognized")})
	model := updated.(Model)

	sess := model.Session()
	if sess.Status() != session.StatusAuthFailed {
		t.Errorf("status = %v", sess.Status())
	}
	if sess.Authenticated() {
		t.Error("failed login must not set a credential")
	}
}

func TestLoginStopReleasesStreamOnRemoteFailure(t *testing.T) {
	svc := &fakeService{loginErr: errors.New("service down")}
	m, backend, _ := newTestModel(svc)

	msgs := runCmd(startRecordingCmd(m.recorder, audio.PurposeAuth))
	if len(msgs) != 1 {
		t.Fatalf("expected recordStartedMsg, got %v", msgs)
	}

	msgs = runCmd(stopLoginCmd(m.recorder, svc))
	if len(msgs) != 1 {
		t.Fatalf("expected loginResultMsg, got %v", msgs)
	}
	result := msgs[0].(loginResultMsg)
	if result.Err == nil {
		t.Fatal("expected login error")
	}
	if !backend.streams[0].isClosed() {
		t.Error("device stream must be released even when the login call fails")
	}
}

func TestDuplicateRecordingStart(t *testing.T) {
	svc := &fakeService{}
	m, backend, _ := newTestModel(svc)
	m = authenticate(t, m)

	runCmd(startRecordingCmd(m.recorder, audio.PurposeChat))
	msgs := runCmd(startRecordingCmd(m.recorder, audio.PurposeChat))

	if len(msgs) != 0 {
		t.Errorf("duplicate start must be silent, got %v", msgs)
	}
	if len(backend.streams) != 1 {
		t.Errorf("streams = %d, want 1", len(backend.streams))
	}
	if m.Session().Status() != session.StatusAuthenticated {
		t.Error("authStatus must be untouched")
	}
}

func TestChatRoundTrip(t *testing.T) {
	svc := &fakeService{chatReply: "hi"}
	m, _, player := newTestModel(svc)
	m = authenticate(t, m)

	updated, cmd := m.sendText("hello")
	m = updated.(Model)
	if !m.sending {
		t.Error("a send must be marked in flight")
	}

	msgs := runCmd(cmd)
	if len(svc.chatMessages) != 1 || svc.chatMessages[0] != "hello" {
		t.Fatalf("chat calls = %v", svc.chatMessages)
	}
	if svc.chatTokens[0] != "jwt-abc" {
		t.Errorf("chat token = %q", svc.chatTokens[0])
	}

	var reply chatReplyMsg
	found := false
	for _, msg := range msgs {
		if r, ok := msg.(chatReplyMsg); ok {
			reply = r
			found = true
		}
	}
	if !found {
		t.Fatal("expected chatReplyMsg")
	}

	updated, cmd = m.Update(reply)
	m = updated.(Model)
	runCmd(cmd)

	transcript := m.Session().Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript = %+v", transcript)
	}
	if transcript[0].Role != session.RoleUser || transcript[0].Content != "hello" {
		t.Errorf("transcript[0] = %+v", transcript[0])
	}
	if transcript[1].Role != session.RoleAssistant || transcript[1].Content != "hi" {
		t.Errorf("transcript[1] = %+v", transcript[1])
	}

	if len(svc.synthTexts) != 1 || svc.synthTexts[0] != "hi" {
		t.Errorf("synthesize calls = %v, want exactly one for %q", svc.synthTexts, "hi")
	}
	if m.sending {
		t.Error("send must be cleared after the reply")
	}
	if player.plays != 1 {
		t.Errorf("plays = %d", player.plays)
	}
}

func TestChatFailureAppendsErrorInline(t *testing.T) {
	svc := &fakeService{chatErr: errors.New("boom")}
	m, _, _ := newTestModel(svc)
	m = authenticate(t, m)

	updated, cmd := m.sendText("hello")
	m = updated.(Model)
	msgs := runCmd(cmd)

	for _, msg := range msgs {
		updated, _ = m.Update(msg)
		m = updated.(Model)
	}

	transcript := m.Session().Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript = %+v", transcript)
	}
	if transcript[0].Content != "hello" {
		t.Errorf("transcript[0] = %+v", transcript[0])
	}
	if transcript[1].Content != "Error talking to LLM: boom" {
		t.Errorf("transcript[1] = %q", transcript[1].Content)
	}
	if len(svc.synthTexts) != 0 {
		t.Error("failed chat must not trigger synthesis")
	}
}

func TestEmptyTranscriptionDropped(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)
	m = authenticate(t, m)

	updated, _ := m.Update(transcriptionMsg{Text: ""})
	model := updated.(Model)

	if len(model.Session().Transcript()) != 0 {
		t.Error("empty transcription appends zero messages")
	}
	if len(svc.chatMessages) != 0 {
		t.Error("empty transcription must not reach the chat service")
	}
}

func TestTranscriptionForwardedAsSend(t *testing.T) {
	svc := &fakeService{chatReply: "sure"}
	m, _, _ := newTestModel(svc)
	m = authenticate(t, m)

	updated, cmd := m.Update(transcriptionMsg{Text: "what is my balance"})
	m = updated.(Model)
	runCmd(cmd)

	if len(svc.chatMessages) != 1 || svc.chatMessages[0] != "what is my balance" {
		t.Errorf("chat calls = %v", svc.chatMessages)
	}
	transcript := m.Session().Transcript()
	if len(transcript) != 1 || transcript[0].Role != session.RoleUser {
		t.Errorf("transcript = %+v", transcript)
	}
}

func TestConfirmRegistrationEmptyUsername(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)

	updated, _ := m.Update(registrationClipMsg{Clip: &audio.Clip{Data: []byte("x")}})
	m = updated.(Model)

	updated, _ = m.confirmRegistration() // username input is empty
	m = updated.(Model)

	if svc.enrollCalls != 0 {
		t.Error("confirm with empty username must not issue an enroll call")
	}
	if m.Session().Pending() == nil {
		t.Error("the staged clip must survive a rejected confirm")
	}
}

func TestEnrollFailurePreservesPending(t *testing.T) {
	svc := &fakeService{enrollErr: errors.New("already exists")}
	m, _, _ := newTestModel(svc)

	updated, _ := m.Update(registrationClipMsg{Clip: &audio.Clip{Data: []byte("x")}})
	m = updated.(Model)
	m.username.SetValue("alice")

	updated, cmd := m.confirmRegistration()
	m = updated.(Model)
	msgs := runCmd(cmd)

	for _, msg := range msgs {
		updated, _ = m.Update(msg)
		m = updated.(Model)
	}

	if svc.enrollCalls != 1 {
		t.Fatalf("enroll calls = %d", svc.enrollCalls)
	}
	if m.Session().Pending() == nil {
		t.Error("enroll failure must preserve the pending registration for retry")
	}
}

func TestEnrollSuccessClearsPending(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)

	updated, _ := m.Update(registrationClipMsg{Clip: &audio.Clip{Data: []byte("x")}})
	m = updated.(Model)
	m.username.SetValue("alice")

	updated, cmd := m.confirmRegistration()
	m = updated.(Model)
	for _, msg := range runCmd(cmd) {
		updated, _ = m.Update(msg)
		m = updated.(Model)
	}

	if m.Session().Pending() != nil {
		t.Error("enroll success must clear the pending registration")
	}
	if m.Session().Authenticated() {
		t.Error("enrollment alone must not authenticate")
	}
}

func TestSpeakFailureStaysInline(t *testing.T) {
	svc := &fakeService{}
	m, _, _ := newTestModel(svc)
	m = authenticate(t, m)
	m.sess.AppendUser("hello")
	m.sess.AppendAssistant("hi")

	updated, _ := m.Update(speakFailedMsg{Err: errors.New("tts down")})
	model := updated.(Model)

	transcript := model.Session().Transcript()
	if len(transcript) != 3 {
		t.Fatalf("transcript = %+v", transcript)
	}
	if transcript[2].Content != "TTS error: tts down" {
		t.Errorf("transcript[2] = %q", transcript[2].Content)
	}
	if transcript[0].Content != "hello" || transcript[1].Content != "hi" {
		t.Error("speak failure must not reorder earlier messages")
	}
	if model.Session().Status() != session.StatusAuthenticated {
		t.Error("speak failure must not mutate authentication")
	}
}

func TestPlaybackFailureSwallowed(t *testing.T) {
	svc := &fakeService{}
	m, _, player := newTestModel(svc)
	player.fail = errors.New("no audio device")
	m = authenticate(t, m)

	msgs := runCmd(speakCmd(svc, player, "hi"))
	if len(msgs) != 0 {
		t.Errorf("playback failure must be swallowed, got %v", msgs)
	}
}

func TestSerializedSends(t *testing.T) {
	svc := &fakeService{chatReply: "hi"}
	m, _, _ := newTestModel(svc)
	m = authenticate(t, m)

	updated, _ := m.sendText("first")
	m = updated.(Model)
	updated, _ = m.sendText("second")
	m = updated.(Model)

	transcript := m.Session().Transcript()
	if len(transcript) != 1 || transcript[0].Content != "first" {
		t.Errorf("second send while in flight must be rejected; transcript = %+v", transcript)
	}
}
