// Package config resolves the service endpoints and session id. Sources in
// order of precedence: command-line flags, environment, a YAML file under
// ~/.voxchat, and an optionally fetched remote JSON document. The rest of
// the program sees only the resolved Config.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

const (
	// DefaultBaseDir is the configuration directory name under $HOME.
	DefaultBaseDir = ".voxchat"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config holds the resolved endpoints and session identity.
type Config struct {
	SpeechToTextURL string `yaml:"stt_url" json:"stt_url"`
	ChatURL         string `yaml:"chat_url" json:"chat_url"`
	TextToSpeechURL string `yaml:"tts_url" json:"tts_url"`
	VoiceAuthURL    string `yaml:"voice_auth_url" json:"voice_auth_url"`
	SessionID       string `yaml:"session_id" json:"session_id"`
}

// DefaultPath returns ~/.voxchat/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
}

// FromEnv reads the VOXCHAT_* environment variables.
func FromEnv() Config {
	return Config{
		SpeechToTextURL: os.Getenv("VOXCHAT_STT_URL"),
		ChatURL:         os.Getenv("VOXCHAT_CHAT_URL"),
		TextToSpeechURL: os.Getenv("VOXCHAT_TTS_URL"),
		VoiceAuthURL:    os.Getenv("VOXCHAT_VOICE_AUTH_URL"),
		SessionID:       os.Getenv("VOXCHAT_SESSION_ID"),
	}
}

// LoadFile reads a YAML config file. A missing file at the default path is
// not an error; an explicit path must exist.
func LoadFile(path string, explicit bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Fetch retrieves a JSON config document from a URL. Used for deployments
// that publish endpoints at runtime instead of baking them in.
func Fetch(ctx context.Context, url string) (Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Config{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Config{}, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Config{}, fmt.Errorf("fetch config: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Config{}, fmt.Errorf("read config document: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config document: %w", err)
	}
	return cfg, nil
}

// Merge fills empty fields of c from other. Fields already set keep their
// value, which is how source precedence is applied.
func (c *Config) Merge(other Config) {
	if c.SpeechToTextURL == "" {
		c.SpeechToTextURL = other.SpeechToTextURL
	}
	if c.ChatURL == "" {
		c.ChatURL = other.ChatURL
	}
	if c.TextToSpeechURL == "" {
		c.TextToSpeechURL = other.TextToSpeechURL
	}
	if c.VoiceAuthURL == "" {
		c.VoiceAuthURL = other.VoiceAuthURL
	}
	if c.SessionID == "" {
		c.SessionID = other.SessionID
	}
}

// Finalize validates the endpoints and generates a session id when none was
// configured.
func (c *Config) Finalize() error {
	missing := ""
	switch {
	case c.SpeechToTextURL == "":
		missing = "stt_url"
	case c.ChatURL == "":
		missing = "chat_url"
	case c.TextToSpeechURL == "":
		missing = "tts_url"
	case c.VoiceAuthURL == "":
		missing = "voice_auth_url"
	}
	if missing != "" {
		return fmt.Errorf("missing endpoint %s (flag, VOXCHAT_* env, or %s)", missing, DefaultPath())
	}
	if c.SessionID == "" {
		c.SessionID = uuid.NewString()
	}
	return nil
}
