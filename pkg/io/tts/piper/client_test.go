package piper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xpanvictor/aria/pkg/Logger"
)

func TestSynthesize(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAB}, 2048)
	var gotText, gotVoice string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/text-to-speech" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotText = r.URL.Query().Get("text")
		gotVoice = r.URL.Query().Get("voice")
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(audio)
	}))
	defer server.Close()

	c := NewClient(server.URL, "en_US-amy-medium", 1024, 0, Logger.Nop())
	got, err := c.Synthesize(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("audio payload mangled: got %d bytes", len(got))
	}
	if gotText != "hello world" {
		t.Errorf("expected text query, got %q", gotText)
	}
	if gotVoice != "en_US-amy-medium" {
		t.Errorf("expected voice query, got %q", gotVoice)
	}
}

func TestSynthesizeRejectsTinyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("RIFF")) // header fragment, no audio
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 1024, 0, Logger.Nop())
	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestSynthesizeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "nope", 0, 0, Logger.Nop())
	if _, err := c.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := NewClient("http://localhost:5000", "", 0, 0, Logger.Nop())
	if _, err := c.Synthesize(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}
