package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestMergePrecedence(t *testing.T) {
	cfg := Config{ChatURL: "http://flag-chat"}
	cfg.Merge(Config{ChatURL: "http://env-chat", SpeechToTextURL: "http://env-stt"})

	if cfg.ChatURL != "http://flag-chat" {
		t.Errorf("set field was overwritten: %q", cfg.ChatURL)
	}
	if cfg.SpeechToTextURL != "http://env-stt" {
		t.Errorf("empty field was not filled: %q", cfg.SpeechToTextURL)
	}
}

func TestFinalizeRejectsMissingEndpoint(t *testing.T) {
	cfg := Config{
		SpeechToTextURL: "http://stt",
		ChatURL:         "http://chat",
		TextToSpeechURL: "http://tts",
	}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for missing voice_auth_url")
	}
}

func TestFinalizeGeneratesSessionID(t *testing.T) {
	cfg := Config{
		SpeechToTextURL: "http://stt",
		ChatURL:         "http://chat",
		TextToSpeechURL: "http://tts",
		VoiceAuthURL:    "http://auth",
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.SessionID == "" {
		t.Error("session id should be generated when unset")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chat_url: http://chat\nstt_url: http://stt\nsession_id: fixed\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, true)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ChatURL != "http://chat" || cfg.SessionID != "fixed" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadFile(path, false); err != nil {
		t.Errorf("missing default-path file should not error: %v", err)
	}
	if _, err := LoadFile(path, true); err == nil {
		t.Error("missing explicit file should error")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"chat_url":   "http://remote-chat",
			"session_id": "remote-sess",
		})
	}))
	defer srv.Close()

	cfg, err := Fetch(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if cfg.ChatURL != "http://remote-chat" || cfg.SessionID != "remote-sess" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFetchNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Fetch(t.Context(), srv.URL); err == nil {
		t.Error("expected error for non-200 config document")
	}
}
