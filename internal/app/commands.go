package app

import (
	"context"
	"errors"
	"time"

	"github.com/jwulff/voxchat/internal/api"
	"github.com/jwulff/voxchat/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

// Service is the remote surface the model orchestrates. *api.Client
// implements it; tests substitute fakes.
type Service interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
	Enroll(ctx context.Context, username string, clip *audio.Clip) error
	Login(ctx context.Context, clip *audio.Clip) (api.LoginResult, error)
	DeleteUser(ctx context.Context, username string) error
	Chat(ctx context.Context, token, sessionID, message string) (string, error)
	Synthesize(ctx context.Context, text string) (*audio.Clip, error)
}

// startRecordingCmd opens the microphone for a purpose. A duplicate start
// is a silent no-op; a device failure comes back as recordFailedMsg.
func startRecordingCmd(rec *audio.Recorder, purpose audio.Purpose) tea.Cmd {
	return func() tea.Msg {
		if err := rec.Begin(purpose); err != nil {
			if errors.Is(err, audio.ErrAlreadyRecording) {
				return nil
			}
			return recordFailedMsg{Purpose: purpose, Err: err}
		}
		return recordStartedMsg{Purpose: purpose}
	}
}

// stopLoginCmd ends the login capture and submits the sample. Stopping
// without an open capture produces nothing.
func stopLoginCmd(rec *audio.Recorder, svc Service) tea.Cmd {
	return func() tea.Msg {
		clip := rec.Stop(audio.PurposeAuth)
		if clip == nil {
			return nil
		}
		result, err := svc.Login(context.Background(), clip)
		return loginResultMsg{Result: result, Err: err}
	}
}

// stopRegisterCmd ends the registration capture. The clip is staged for
// preview and confirm; no network call happens here.
func stopRegisterCmd(rec *audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		clip := rec.Stop(audio.PurposeAuth)
		if clip == nil {
			return nil
		}
		return registrationClipMsg{Clip: clip}
	}
}

// enrollCmd submits a confirmed registration.
func enrollCmd(svc Service, username string, clip *audio.Clip) tea.Cmd {
	return func() tea.Msg {
		err := svc.Enroll(context.Background(), username, clip)
		return enrollResultMsg{Username: username, Err: err}
	}
}

// deleteUserCmd removes an enrolled voice.
func deleteUserCmd(svc Service, username string) tea.Cmd {
	return func() tea.Msg {
		err := svc.DeleteUser(context.Background(), username)
		return deleteResultMsg{Username: username, Err: err}
	}
}

// stopChatRecordingCmd ends the chat capture and transcribes it.
func stopChatRecordingCmd(rec *audio.Recorder, svc Service) tea.Cmd {
	return func() tea.Msg {
		clip := rec.Stop(audio.PurposeChat)
		if clip == nil {
			return nil
		}
		text, err := svc.Transcribe(context.Background(), clip)
		return transcriptionMsg{Text: text, Err: err}
	}
}

// chatCmd sends one user message to the chat service.
func chatCmd(svc Service, token, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := svc.Chat(context.Background(), token, sessionID, text)
		return chatReplyMsg{Reply: reply, Err: err}
	}
}

// speakCmd synthesizes text and plays it. Detached from the chat
// transition: playback failure is swallowed, synthesis failure surfaces as
// a transcript message and touches nothing else.
func speakCmd(svc Service, player audio.Player, text string) tea.Cmd {
	return func() tea.Msg {
		clip, err := svc.Synthesize(context.Background(), text)
		if err != nil {
			return speakFailedMsg{Err: err}
		}
		player.Play(clip)
		return nil
	}
}

// playClipCmd plays an already captured clip (registration preview).
func playClipCmd(player audio.Player, clip *audio.Clip) tea.Cmd {
	return func() tea.Msg {
		player.Play(clip)
		return nil
	}
}

// healthCmd probes one service healthz endpoint.
func healthCmd(client *api.Client, name, baseURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{Service: name, Err: client.Health(ctx, baseURL)}
	}
}

// clearStatusCmd fires after a delay to clear a transient status line.
func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
