package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		viper.Reset()
		os.Chdir(old)
	})
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load()
	if err != nil {
		t.Fatalf("missing config file must not fail: %v", err)
	}

	if s.Audio.SampleRate != 16000 || s.Audio.ChunkSize != 1024 || s.Audio.Channels != 1 {
		t.Errorf("unexpected audio defaults: %+v", s.Audio)
	}
	if s.VAD.SilenceThreshold != 20.0 || s.VAD.SilenceDuration != 3.5 {
		t.Errorf("unexpected vad defaults: %+v", s.VAD)
	}
	if s.VAD.MinRecordingDuration != 1.5 || s.VAD.PreBufferDuration != 2.0 {
		t.Errorf("unexpected vad defaults: %+v", s.VAD)
	}
	if s.Conversation.MemoryLength != 5 {
		t.Errorf("expected memory length 5, got %d", s.Conversation.MemoryLength)
	}
	if len(s.Conversation.ExitPhrases) != 5 {
		t.Errorf("expected 5 exit phrases, got %v", s.Conversation.ExitPhrases)
	}
	if len(s.Conversation.FallbackPhrases) != 4 {
		t.Errorf("expected 4 fallback phrases, got %v", s.Conversation.FallbackPhrases)
	}
	if s.LLM.OpenAI.Temperature != 0.7 || s.LLM.OpenAI.MaxTokens != 150 || s.LLM.OpenAI.TopP != 0.9 {
		t.Errorf("unexpected llm defaults: %+v", s.LLM.OpenAI)
	}
	if s.Saving.MaxSavedFiles != 100 {
		t.Errorf("expected max saved files 100, got %d", s.Saving.MaxSavedFiles)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
debug: true
audio:
  sample_rate: 44100
vad:
  silence_duration: 2.0
conversation:
  memory_length: 10
  exit_phrases: ["later"]
llm:
  providers: ["ollama", "openai"]
  ollama:
    urls: ["http://localhost:11434"]
`
	if err := os.WriteFile(filepath.Join(dir, "config_dev.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Debug {
		t.Error("expected debug override")
	}
	if s.Audio.SampleRate != 44100 {
		t.Errorf("expected sample rate override, got %d", s.Audio.SampleRate)
	}
	if s.Audio.ChunkSize != 1024 {
		t.Errorf("defaults must survive partial override, got chunk %d", s.Audio.ChunkSize)
	}
	if s.VAD.SilenceDuration != 2.0 {
		t.Errorf("expected silence duration override, got %v", s.VAD.SilenceDuration)
	}
	if s.Conversation.MemoryLength != 10 {
		t.Errorf("expected memory length override, got %d", s.Conversation.MemoryLength)
	}
	if len(s.Conversation.ExitPhrases) != 1 || s.Conversation.ExitPhrases[0] != "later" {
		t.Errorf("expected exit phrase override, got %v", s.Conversation.ExitPhrases)
	}
	if len(s.LLM.Providers) != 2 || s.LLM.Providers[0] != "ollama" {
		t.Errorf("expected provider order override, got %v", s.LLM.Providers)
	}
	if len(s.LLM.Ollama.URLs) != 1 {
		t.Errorf("expected ollama url, got %v", s.LLM.Ollama.URLs)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config_dev.yaml"), []byte("audio: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
