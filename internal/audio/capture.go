// Package audio owns the microphone and speaker processes. Capture is
// purpose-scoped: at most one recording per purpose may be open, and the
// underlying device stream is released on every exit path.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// ErrDeviceUnavailable is returned when no capture device can be
	// opened (missing ffmpeg, no microphone, permission denied).
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrAlreadyRecording is returned when a recording for the same
	// purpose is already open. Callers treat it as a no-op.
	ErrAlreadyRecording = errors.New("already recording")
)

// Clip is a finished capture: an immutable byte blob plus its mime type.
// Produced exactly once per recording and consumed by exactly one upload.
type Clip struct {
	Data []byte
	MIME string
}

// Purpose is the logical reason a recording is taken. Recordings are
// mutually exclusive within a purpose, independent across purposes.
type Purpose string

const (
	PurposeChat Purpose = "chat" // utterance to transcribe and send
	PurposeAuth Purpose = "auth" // login or registration voice sample
)

// Backend opens a device stream producing encoded audio. Closing the
// returned stream stops the device.
type Backend interface {
	Start() (io.ReadCloser, error)
	MIME() string
}

// recording is one in-progress capture. It owns its stream exclusively.
type recording struct {
	stream io.ReadCloser
	buf    bytes.Buffer
	done   chan struct{}
}

// Recorder starts and stops captures, enforcing per-purpose exclusivity.
// Safe for use from concurrent command goroutines.
type Recorder struct {
	backend Backend

	mu     sync.Mutex
	active map[Purpose]*recording
}

// NewRecorder returns a Recorder using the given backend.
func NewRecorder(backend Backend) *Recorder {
	return &Recorder{
		backend: backend,
		active:  make(map[Purpose]*recording),
	}
}

// Begin opens the device and starts accumulating audio for the purpose.
// Returns ErrAlreadyRecording if a capture for this purpose is open, or
// ErrDeviceUnavailable if the device cannot be acquired.
func (r *Recorder) Begin(purpose Purpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, open := r.active[purpose]; open {
		return ErrAlreadyRecording
	}

	stream, err := r.backend.Start()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	rec := &recording{stream: stream, done: make(chan struct{})}
	r.active[purpose] = rec

	go func() {
		defer close(rec.done)
		io.Copy(&rec.buf, stream) // ends when the stream is closed
	}()

	return nil
}

// Recording reports whether a capture for the purpose is open.
func (r *Recorder) Recording(purpose Purpose) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, open := r.active[purpose]
	return open
}

// Stop ends the capture for the purpose and returns the accumulated clip.
// The device stream is released unconditionally, whatever the caller later
// does with the clip. Stopping a purpose with no open capture is a no-op
// returning a nil clip.
func (r *Recorder) Stop(purpose Purpose) *Clip {
	r.mu.Lock()
	rec, open := r.active[purpose]
	if !open {
		r.mu.Unlock()
		return nil
	}
	delete(r.active, purpose)
	r.mu.Unlock()

	rec.stream.Close()
	<-rec.done

	return &Clip{Data: rec.buf.Bytes(), MIME: r.backend.MIME()}
}

// Abort stops the capture for the purpose and discards the audio.
func (r *Recorder) Abort(purpose Purpose) {
	r.Stop(purpose)
}
