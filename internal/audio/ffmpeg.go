package audio

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

const captureSampleRateHz = 16000

// FFmpegBackend captures microphone audio through an ffmpeg subprocess,
// emitting a mono 16 kHz WAV stream on stdout.
type FFmpegBackend struct {
	// Device overrides the platform default input device
	// (avfoundation index on darwin, pulse source on linux).
	Device string
}

// MIME returns the container type of captured clips.
func (b *FFmpegBackend) MIME() string { return "audio/wav" }

// Start launches ffmpeg and returns its stdout. Closing the returned
// stream kills the subprocess and reaps it.
func (b *FFmpegBackend) Start() (io.ReadCloser, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH")
	}

	args, err := b.args(runtime.GOOS)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &ffmpegStream{cmd: cmd, stdout: stdout}, nil
}

func (b *FFmpegBackend) args(goos string) ([]string, error) {
	common := []string{
		"-hide_banner", "-loglevel", "error",
		"-ac", "1", "-ar", fmt.Sprintf("%d", captureSampleRateHz),
		"-f", "wav", "-",
	}
	switch goos {
	case "darwin":
		device := b.Device
		if device == "" {
			device = ":0"
		}
		return append([]string{"-f", "avfoundation", "-i", device}, common...), nil
	case "linux":
		device := b.Device
		if device == "" {
			device = "default"
		}
		return append([]string{"-f", "pulse", "-i", device}, common...), nil
	default:
		return nil, fmt.Errorf("microphone capture not supported on %s", goos)
	}
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegStream) Close() error {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}
