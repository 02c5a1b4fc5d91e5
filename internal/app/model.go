// Package app is the bubbletea front of the client: it turns key presses
// into session transitions and asynchronous service calls, one message at a
// time. All orchestration state lives here or in the session aggregate;
// command closures only perform I/O and report back.
package app

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/jwulff/voxchat/internal/api"
	"github.com/jwulff/voxchat/internal/audio"
	"github.com/jwulff/voxchat/internal/session"
	"github.com/jwulff/voxchat/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// authFlow tracks which auth capture the open voice-sample recording
// belongs to. Login and registration share the auth capture purpose, so
// only one can run at a time.
type authFlow int

const (
	flowNone authFlow = iota
	flowLogin
	flowRegister
)

// usernameMode says what the username input, when visible, is for.
type usernameMode int

const (
	usernameHidden usernameMode = iota
	usernameRegister
	usernameDelete
)

// Options wires the model's collaborators.
type Options struct {
	Service   Service
	Client    *api.Client // for health probes; nil disables them
	Recorder  *audio.Recorder
	Player    audio.Player
	History   *store.Store // nil disables persistence
	SessionID string
}

// Model is the root bubbletea model.
type Model struct {
	svc       Service
	client    *api.Client
	recorder  *audio.Recorder
	player    audio.Player
	history   *store.Store
	sessionID string

	sess *session.Session

	// In-flight operation flags
	flow         authFlow
	sending      bool
	transcribing bool
	enrolling    bool
	deleting     bool

	// Inputs
	composer textinput.Model
	username textinput.Model
	unameFor usernameMode

	// UI state
	width, height int
	scroll        int
	live          bool
	statusText    string
	statusSeq     int
	health        map[string]error
}

// New creates the model with an anonymous session.
func New(opts Options) Model {
	composer := textinput.New()
	composer.Placeholder = "Type your message..."
	composer.CharLimit = 0
	composer.Focus()

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64

	return Model{
		svc:       opts.Service,
		client:    opts.Client,
		recorder:  opts.Recorder,
		player:    opts.Player,
		history:   opts.History,
		sessionID: opts.SessionID,
		sess:      session.New(),
		composer:  composer,
		username:  username,
		live:      true,
		health:    make(map[string]error),
	}
}

// Session exposes the aggregate for tests and the view.
func (m Model) Session() *session.Session { return m.sess }

// Init probes the four services so a dead backend shows up before the
// first recording.
func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	ep := m.client.Endpoints()
	return tea.Batch(
		healthCmd(m.client, "stt", ep.SpeechToText),
		healthCmd(m.client, "auth", ep.VoiceAuth),
		healthCmd(m.client, "chat", ep.Chat),
		healthCmd(m.client, "tts", ep.TextToSpeech),
	)
}

// Update processes messages and returns the updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.composer.Width = max(20, m.width-8)
		return m, nil

	case recordStartedMsg:
		switch {
		case msg.Purpose == audio.PurposeAuth && m.flow == flowLogin:
			m.sess.BeginLogin()
			m.statusText = "Recording your voice..."
		case msg.Purpose == audio.PurposeAuth && m.flow == flowRegister:
			m.statusText = "Recording registration sample..."
		case msg.Purpose == audio.PurposeChat:
			m.statusText = "Listening..."
		}
		return m, nil

	case recordFailedMsg:
		if msg.Purpose == audio.PurposeAuth {
			m.flow = flowNone
		}
		return m.setTransientStatus("Mic access denied: " + msg.Err.Error())

	case loginResultMsg:
		m.flow = flowNone
		if msg.Err != nil {
			m.sess.LoginFailed(msg.Err.Error())
			m.statusText = "Authentication failed: " + msg.Err.Error()
			return m, nil
		}
		m.sess.LoginSucceeded(msg.Result.Token, msg.Result.Username)
		m.statusText = "Authenticated as " + msg.Result.Username
		m.composer.Focus()
		return m, nil

	case registrationClipMsg:
		m.flow = flowNone
		m.sess.CaptureRegistration(msg.Clip)
		m.unameFor = usernameRegister
		m.username.Focus()
		m.statusText = "Sample captured. Enter a username, ctrl+p to preview, enter to confirm."
		return m, nil

	case enrollResultMsg:
		m.enrolling = false
		if msg.Err != nil {
			// Staged clip is preserved so the user can retry the confirm.
			m.sess.RegistrationFailed()
			return m.setTransientStatus("Enrollment failed: " + msg.Err.Error())
		}
		m.sess.RegistrationSucceeded()
		m.unameFor = usernameHidden
		m.username.SetValue("")
		m.username.Blur()
		return m.setTransientStatus("Enrolled " + msg.Username + ". You can voice-login now.")

	case deleteResultMsg:
		m.deleting = false
		m.unameFor = usernameHidden
		m.username.SetValue("")
		m.username.Blur()
		if msg.Err != nil {
			return m.setTransientStatus("Delete failed: " + msg.Err.Error())
		}
		return m.setTransientStatus("Deleted voice for " + msg.Username)

	case transcriptionMsg:
		m.transcribing = false
		if msg.Err != nil {
			m.sess.AppendAssistant("STT Error: " + msg.Err.Error())
			m.scrollToBottom()
			return m, m.persist(session.RoleAssistant, "STT Error: "+msg.Err.Error())
		}
		if msg.Text == "" {
			// Nothing recognized: drop silently, no message, no error.
			return m, nil
		}
		return m.sendText(msg.Text)

	case chatReplyMsg:
		m.sending = false
		if msg.Err != nil {
			content := "Error talking to LLM: " + msg.Err.Error()
			m.sess.AppendAssistant(content)
			m.scrollToBottom()
			return m, m.persist(session.RoleAssistant, content)
		}
		m.sess.AppendAssistant(msg.Reply)
		m.scrollToBottom()
		return m, tea.Batch(
			m.persist(session.RoleAssistant, msg.Reply),
			speakCmd(m.svc, m.player, msg.Reply),
		)

	case speakFailedMsg:
		content := "TTS error: " + msg.Err.Error()
		m.sess.AppendAssistant(content)
		m.scrollToBottom()
		return m, m.persist(session.RoleAssistant, content)

	case healthMsg:
		m.health[msg.Service] = msg.Err
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
		}
		return m, nil
	}

	return m, nil
}

// sendText runs the sendMessage transition for typed or transcribed text.
func (m Model) sendText(raw string) (tea.Model, tea.Cmd) {
	text, err := m.sess.PrepareSend(raw)
	if errors.Is(err, session.ErrInvalidInput) {
		return m, nil
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		return m.setTransientStatus("You must login with voice first")
	}
	if m.sending {
		// One chat round-trip at a time keeps replies in submission order.
		return m.setTransientStatus("Still waiting for the previous reply")
	}

	m.sess.AppendUser(text)
	m.scrollToBottom()
	m.sending = true
	return m, tea.Batch(
		m.persist(session.RoleUser, text),
		chatCmd(m.svc, m.sess.Token(), m.sessionID, text),
	)
}

// persist appends one message to the history store, best-effort.
func (m Model) persist(role session.Role, content string) tea.Cmd {
	if m.history == nil {
		return nil
	}
	st, id := m.history, m.sessionID
	return func() tea.Msg {
		st.AppendMessage(id, string(role), content) // errors deliberately dropped
		return nil
	}
}

func (m Model) setTransientStatus(text string) (tea.Model, tea.Cmd) {
	m.statusText = text
	m.statusSeq++
	return m, clearStatusCmd(m.statusSeq)
}

func (m *Model) scrollToBottom() {
	m.live = true
	m.scroll = 0
}

// lastAssistant returns the content of the most recent assistant message.
func (m Model) lastAssistant() (string, bool) {
	transcript := m.sess.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == session.RoleAssistant {
			return transcript[i].Content, true
		}
	}
	return "", false
}
