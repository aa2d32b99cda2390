// Package whisper is a client for a Whisper-compatible ASR service.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/aria/pkg/Logger"
)

// Transcription is the service's recognition result.
type Transcription struct {
	Text        string                 `json:"text"`
	Language    string                 `json:"language"`
	Segments    []TranscriptionSegment `json:"segments,omitempty"`
	GeneratedAt time.Time              `json:"-"`
}

// TranscriptionSegment is a timed slice of the transcription.
type TranscriptionSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	ID    int     `json:"id"`
}

// Client talks to a Whisper ASR endpoint over HTTP.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *Logger.Logger
}

// NewClient builds a client for the service at baseURL. Language is the
// recognition language hint; empty means "en". Timeout zero means 30s.
func NewClient(baseURL, language string, timeout time.Duration, logger *Logger.Logger) *Client {
	if language == "" {
		language = "en"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Transcribe sends a WAV payload to the service and returns the recognition
// result. An empty transcription is a valid result; callers decide what to do
// with silence.
func (c *Client) Transcribe(ctx context.Context, wavData []byte) (*Transcription, error) {
	if len(wavData) == 0 {
		return nil, fmt.Errorf("no audio data provided")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	requestURL := fmt.Sprintf("%s/asr?encode=true&task=transcribe&language=%s&output=json",
		c.baseURL, url.QueryEscape(c.language))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Errorf("transcription service error (status %d): %s", resp.StatusCode, string(responseBody))
		return nil, fmt.Errorf("transcription service returned status %d: %s", resp.StatusCode, string(responseBody))
	}
	if len(responseBody) == 0 {
		return nil, fmt.Errorf("transcription service returned empty response")
	}

	var transcription Transcription
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		// Some deployments return the bare text instead of JSON.
		text := strings.TrimSpace(string(responseBody))
		if text != "" {
			c.logger.Debugf("treating non-JSON response as plain text transcription")
			return &Transcription{
				Text:        text,
				Language:    c.language,
				GeneratedAt: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	transcription.GeneratedAt = time.Now()

	c.logger.Debugf("transcription: %s (language: %s)", transcription.Text, transcription.Language)
	return &transcription, nil
}
