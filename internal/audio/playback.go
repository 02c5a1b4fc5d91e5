package audio

import (
	"fmt"
	"io"
	"os/exec"
)

// Player plays finished clips. The ffplay implementation is process-per-clip
// so playbacks never contend for a shared device handle.
type Player interface {
	Play(clip *Clip) error
}

// FFplayPlayer plays a clip by piping it to an ffplay subprocess.
type FFplayPlayer struct{}

// Play starts playback and returns once the clip bytes are handed off.
// It does not wait for the audio to finish.
func (FFplayPlayer) Play(clip *Clip) error {
	if clip == nil || len(clip.Data) == 0 {
		return nil
	}
	if _, err := exec.LookPath("ffplay"); err != nil {
		return fmt.Errorf("ffplay not found in PATH")
	}

	cmd := exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffplay stdin: %w", err)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}

	go func() {
		stdin.Write(clip.Data)
		stdin.Close()
		cmd.Wait()
	}()

	return nil
}
