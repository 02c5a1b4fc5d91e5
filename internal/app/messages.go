package app

import (
	"github.com/jwulff/voxchat/internal/api"
	"github.com/jwulff/voxchat/internal/audio"
)

// recordStartedMsg is sent when the microphone opened for a purpose.
type recordStartedMsg struct {
	Purpose audio.Purpose
}

// recordFailedMsg is sent when the microphone could not be opened.
// ErrAlreadyRecording never reaches Update: a duplicate start is dropped
// inside the command.
type recordFailedMsg struct {
	Purpose audio.Purpose
	Err     error
}

// loginResultMsg carries the outcome of a voice login round-trip.
type loginResultMsg struct {
	Result api.LoginResult
	Err    error
}

// registrationClipMsg carries a captured registration sample. No network
// call has been made yet: enrollment waits for an explicit confirm.
type registrationClipMsg struct {
	Clip *audio.Clip
}

// enrollResultMsg carries the outcome of a confirmed enrollment.
type enrollResultMsg struct {
	Username string
	Err      error
}

// deleteResultMsg carries the outcome of a voice deletion.
type deleteResultMsg struct {
	Username string
	Err      error
}

// transcriptionMsg carries the STT result for a chat utterance.
type transcriptionMsg struct {
	Text string
	Err  error
}

// chatReplyMsg carries the assistant reply for a sent message.
type chatReplyMsg struct {
	Reply string
	Err   error
}

// speakFailedMsg is sent when speech synthesis failed. Playback failures
// are swallowed before this point; only the synthesis failure surfaces.
type speakFailedMsg struct {
	Err error
}

// healthMsg reports one service health probe.
type healthMsg struct {
	Service string
	Err     error
}

// clearStatusMsg clears a transient status line after a delay. The seq
// guard keeps an old timer from wiping a newer status.
type clearStatusMsg struct {
	seq int
}
