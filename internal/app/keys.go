package app

import (
	"strings"

	"github.com/jwulff/voxchat/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings. The login panel uses plain letters; the chat panel keeps
// letters for the composer and reserves control chords.
const (
	keyQuit        = "ctrl+c"
	keyQuitLetter  = "q"
	keyLoginRec    = "l"
	keyRegisterRec = "r"
	keyDeleteUser  = "d"
	keyConfirm     = "enter"
	keyCancel      = "esc"
	keyPreview     = "ctrl+p"
	keyChatRec     = "ctrl+r"
	keySpeakLast   = "ctrl+o"
	keyScrollUp    = "pgup"
	keyScrollDown  = "pgdown"
)

// handleKey routes key presses by panel.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == keyQuit {
		return m, tea.Quit
	}
	if m.sess.Authenticated() {
		return m.handleChatKey(msg)
	}
	return m.handleLoginKey(msg)
}

// handleLoginKey covers the anonymous panel: voice login, two-phase
// registration, and voice deletion.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the username input is open, printable keys belong to it.
	if m.unameFor != usernameHidden {
		switch msg.String() {
		case keyConfirm:
			if m.unameFor == usernameRegister {
				return m.confirmRegistration()
			}
			return m.confirmDelete()

		case keyCancel:
			if m.unameFor == usernameRegister {
				m.sess.DiscardRegistration()
			}
			m.unameFor = usernameHidden
			m.username.SetValue("")
			m.username.Blur()
			m.statusText = ""
			return m, nil

		case keyPreview:
			if pending := m.sess.Pending(); pending != nil && pending.Clip != nil {
				return m, playClipCmd(m.player, pending.Clip)
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.username, cmd = m.username.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case keyQuitLetter:
		return m, tea.Quit

	case keyLoginRec:
		if m.recorder.Recording(audio.PurposeAuth) {
			if m.flow != flowLogin {
				return m, nil // a registration capture is running
			}
			m.sess.SubmitLogin()
			m.statusText = "Verifying your voice..."
			return m, stopLoginCmd(m.recorder, m.svc)
		}
		m.flow = flowLogin
		return m, startRecordingCmd(m.recorder, audio.PurposeAuth)

	case keyRegisterRec:
		if m.recorder.Recording(audio.PurposeAuth) {
			if m.flow != flowRegister {
				return m, nil // a login capture is running
			}
			return m, stopRegisterCmd(m.recorder)
		}
		m.flow = flowRegister
		return m, startRecordingCmd(m.recorder, audio.PurposeAuth)

	case keyDeleteUser:
		m.unameFor = usernameDelete
		m.username.Focus()
		m.statusText = "Enter the username to delete, then press enter."
		return m, nil
	}

	return m, nil
}

// confirmRegistration validates locally before spending any network
// resources, exactly once per confirm.
func (m Model) confirmRegistration() (tea.Model, tea.Cmd) {
	if m.enrolling {
		return m, nil
	}
	if err := m.sess.ConfirmRegistration(m.username.Value()); err != nil {
		return m.setTransientStatus("A username and a recorded sample are both required")
	}
	pending := m.sess.Pending()
	m.enrolling = true
	m.statusText = "Enrolling " + pending.Username + "..."
	return m, enrollCmd(m.svc, pending.Username, pending.Clip)
}

func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	if m.deleting {
		return m, nil
	}
	username := strings.TrimSpace(m.username.Value())
	if username == "" {
		return m.setTransientStatus("A username is required")
	}
	m.deleting = true
	m.statusText = "Deleting voice for " + username + "..."
	return m, deleteUserCmd(m.svc, username)
}

// handleChatKey covers the authenticated panel.
func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyConfirm:
		text := m.composer.Value()
		m.composer.SetValue("")
		return m.sendText(text)

	case keyChatRec:
		if m.recorder.Recording(audio.PurposeChat) {
			m.transcribing = true
			m.statusText = "Transcribing..."
			return m, stopChatRecordingCmd(m.recorder, m.svc)
		}
		return m, startRecordingCmd(m.recorder, audio.PurposeChat)

	case keySpeakLast:
		if text, ok := m.lastAssistant(); ok {
			return m, speakCmd(m.svc, m.player, text)
		}
		return m, nil

	case keyScrollUp:
		m.live = false
		m.scroll++
		return m, nil

	case keyScrollDown:
		if m.scroll > 0 {
			m.scroll--
		}
		if m.scroll == 0 {
			m.live = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}
