// Package api wraps the four remote services the client talks to: speech
// to text, voice auth, chat, and text to speech. Each call is a single
// request/response with no internal retry; every failure comes back as an
// error the caller can render, never a panic.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jwulff/voxchat/internal/audio"
)

// requestTimeout bounds every remote call so a hung service surfaces as an
// error instead of leaving the UI pending forever.
const requestTimeout = 30 * time.Second

// Error is a non-2xx response. Detail carries the raw response body, which
// the backends use for human-readable failure messages.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

// Endpoints are the resolved base URLs of the four services. Populated by
// config; the client does not care which source filled them in.
type Endpoints struct {
	SpeechToText string
	VoiceAuth    string
	Chat         string
	TextToSpeech string
}

// Client issues requests against the remote services. Stateless apart from
// the shared http.Client; safe for concurrent use.
type Client struct {
	endpoints Endpoints
	http      *http.Client
}

// New returns a Client for the given endpoints.
func New(endpoints Endpoints) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

// do sends the request and returns the response body, converting any
// non-2xx status into an *Error carrying the body text.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// postJSON sends a JSON body to url and returns the response body.
func (c *Client) postJSON(ctx context.Context, url string, payload []byte, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// postClip uploads a clip as multipart form field "file".
func (c *Client) postClip(ctx context.Context, url string, clip *audio.Clip) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", clipFilename(clip))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, fmt.Errorf("write clip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

func clipFilename(clip *audio.Clip) string {
	switch clip.MIME {
	case "audio/webm":
		return "recording.webm"
	case "audio/ogg":
		return "recording.ogg"
	default:
		return "recording.wav"
	}
}
