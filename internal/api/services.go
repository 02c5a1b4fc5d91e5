package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jwulff/voxchat/internal/audio"
)

// Transcribe sends a captured utterance to the STT service and returns the
// recognized text. Empty text is a valid result: the caller decides whether
// to drop it.
func (c *Client) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	body, err := c.postClip(ctx, c.endpoints.SpeechToText+"/transcribe", clip)
	if err != nil {
		return "", err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal transcription: %w", err)
	}
	return out.Text, nil
}

// Enroll registers a voice sample for the username. The response body is
// ignored beyond the status check.
func (c *Client) Enroll(ctx context.Context, username string, clip *audio.Clip) error {
	_, err := c.postClip(ctx, c.endpoints.VoiceAuth+"/enroll/"+url.PathEscape(username), clip)
	return err
}

// LoginResult is a successful voice login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login matches the sample against enrolled voices and returns a bearer
// token on success.
func (c *Client) Login(ctx context.Context, clip *audio.Clip) (LoginResult, error) {
	body, err := c.postClip(ctx, c.endpoints.VoiceAuth+"/voice-login", clip)
	if err != nil {
		return LoginResult{}, err
	}

	var out LoginResult
	if err := json.Unmarshal(body, &out); err != nil {
		return LoginResult{}, fmt.Errorf("unmarshal login response: %w", err)
	}
	return out, nil
}

// DeleteUser removes an enrolled voice. Independent of authentication state.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoints.VoiceAuth+"/delete/"+url.PathEscape(username), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// Chat sends one user message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, token, sessionID, message string) (string, error) {
	payload, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("X-Session-ID", sessionID)

	body, err := c.postJSON(ctx, c.endpoints.Chat+"/chat", payload, header)
	if err != nil {
		return "", err
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}
	return out.Reply, nil
}

// Synthesize renders text to an mp3 clip.
func (c *Client) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	payload, err := json.Marshal(struct {
		Text        string `json:"text"`
		AudioFormat string `json:"audio_format"`
	}{Text: text, AudioFormat: "mp3"})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	body, err := c.postJSON(ctx, c.endpoints.TextToSpeech+"/tts", payload, nil)
	if err != nil {
		return nil, err
	}
	return &audio.Clip{Data: body, MIME: "audio/mpeg"}, nil
}

// Health probes a service healthz endpoint. Used by the startup check.
func (c *Client) Health(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// Endpoints returns the configured base URLs, for health reporting.
func (c *Client) Endpoints() Endpoints { return c.endpoints }
