package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/voxchat/internal/audio"
	"github.com/jwulff/voxchat/internal/session"
	"github.com/jwulff/voxchat/internal/ui"
)

// View renders the login panel while anonymous and the chat panel once a
// credential is held.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	if m.sess.Authenticated() {
		return m.chatView()
	}
	return m.loginView()
}

func (m Model) loginView() string {
	var sections []string

	sections = append(sections, ui.TitleStyle.Render("VOXCHAT")+ui.DimStyle.Render(" — voice login required"))
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	sections = append(sections, m.renderAuthStatus())

	if m.recorder.Recording(audio.PurposeAuth) {
		sections = append(sections, ui.RecordingDotStyle.Render("● REC")+ui.DimStyle.Render(" voice sample"))
	} else {
		sections = append(sections, ui.IdleDotStyle.Render("○ idle"))
	}

	if m.sess.Pending() != nil {
		sections = append(sections, ui.PendingStyle.Render("Registration sample staged, waiting for confirm"))
	}

	if m.unameFor != usernameHidden {
		label := "Register as:"
		if m.unameFor == usernameDelete {
			label = "Delete user:"
		}
		sections = append(sections, label+" "+m.username.View())
	}

	if m.statusText != "" {
		sections = append(sections, ui.StatusStyle.Render(m.statusText))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderHealth())
	sections = append(sections, m.loginFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderAuthStatus() string {
	switch m.sess.Status() {
	case session.StatusAuthFailed:
		return ui.AuthFailStyle.Render("✗ Authentication failed: " + m.sess.FailReason())
	case session.StatusAuthenticating:
		return ui.PendingStyle.Render("… verifying voice")
	default:
		return ui.DimStyle.Render("Not logged in")
	}
}

func (m Model) renderHealth() string {
	if len(m.health) == 0 {
		return ""
	}
	var parts []string
	for _, name := range []string{"stt", "auth", "chat", "tts"} {
		err, probed := m.health[name]
		if !probed {
			continue
		}
		if err != nil {
			parts = append(parts, ui.ErrorStyle.Render(name+"✗"))
		} else {
			parts = append(parts, ui.DimStyle.Render(name+"✓"))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) loginFooter() string {
	keys := []struct{ key, desc string }{
		{"l", "voice login"},
		{"r", "record registration"},
		{"d", "delete user"},
		{"q", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, ui.FooterKeyStyle.Render(k.key)+ui.FooterDescStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) chatView() string {
	var sections []string

	header := ui.TitleStyle.Render("VOXCHAT") +
		ui.AuthOKStyle.Render(" ✓ "+m.sess.Username())
	sections = append(sections, header)
	sections = append(sections, m.renderChatStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	sections = append(sections, m.renderTranscript())

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.statusText != "" {
		sections = append(sections, ui.StatusStyle.Render(m.statusText))
	}
	sections = append(sections, "> "+m.composer.View())
	sections = append(sections, m.chatFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderChatStatusBar() string {
	var parts []string

	if m.recorder.Recording(audio.PurposeChat) {
		parts = append(parts, ui.RecordingDotStyle.Render("● REC"))
	} else {
		parts = append(parts, ui.IdleDotStyle.Render("○"))
	}
	if m.transcribing {
		parts = append(parts, ui.PendingStyle.Render("transcribing"))
	}
	if m.sending {
		parts = append(parts, ui.PendingStyle.Render("sending"))
	}
	if !m.live {
		parts = append(parts, ui.DimStyle.Render("scroll"))
	}

	return strings.Join(parts, "  ")
}

// renderTranscript lays out the message log, newest at the bottom.
func (m Model) renderTranscript() string {
	height := m.transcriptHeight()
	textWidth := max(10, m.width-12)

	var lines []string
	for _, msg := range m.sess.Transcript() {
		label := roleLabel(msg.Role)
		wrapped := wrapText(msg.Content, textWidth)
		lines = append(lines, label+" "+wrapped[0])
		for _, wl := range wrapped[1:] {
			lines = append(lines, strings.Repeat(" ", lipgloss.Width(label)+1)+wl)
		}
	}

	if len(lines) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Say something: type and press enter, or ctrl+r to talk."))
	}

	// Scroll: m.scroll counts lines up from the bottom.
	end := len(lines) - m.scroll
	if end < 1 {
		end = min(1, len(lines))
	}
	start := end - height
	if start < 0 {
		start = 0
	}
	visible := lines[start:end]

	for len(visible) < height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

func roleLabel(role session.Role) string {
	switch role {
	case session.RoleUser:
		return ui.UserLabelStyle.Render("[you]")
	case session.RoleAssistant:
		return ui.AssistantLabelStyle.Render("[bot]")
	default:
		return ui.SystemLabelStyle.Render("[sys]")
	}
}

func (m Model) transcriptHeight() int {
	if m.height == 0 {
		return 20
	}
	// header(2) + dividers(2) + status(1) + composer(1) + footer(1)
	return max(5, m.height-7)
}

func (m Model) chatFooter() string {
	keys := []struct{ key, desc string }{
		{"enter", "send"},
		{"ctrl+r", "talk"},
		{"ctrl+o", "replay"},
		{"pgup/pgdn", "scroll"},
		{"ctrl+c", "quit"},
	}
	var parts []string
	for _, k := range keys {
		parts = append(parts, ui.FooterKeyStyle.Render(k.key)+ui.FooterDescStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, "  ")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
