// Package piper is a client for a Piper text-to-speech HTTP service.
package piper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xpanvictor/aria/pkg/Logger"
)

// ErrSynthesisFailed reports a response too small to be real audio. Some
// deployments answer 200 with an error page or a header-only WAV; treating
// those as replies would play silence at the user.
var ErrSynthesisFailed = errors.New("synthesis produced no usable audio")

// Client talks to a Piper TTS endpoint.
type Client struct {
	baseURL    string
	voice      string
	minBytes   int
	httpClient *http.Client
	logger     *Logger.Logger
}

// NewClient builds a client for the service at baseURL. minBytes is the
// smallest response accepted as audio; zero means 1024. Timeout zero means
// 30s.
func NewClient(baseURL, voice string, minBytes int, timeout time.Duration, logger *Logger.Logger) *Client {
	if minBytes == 0 {
		minBytes = 1024
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		voice:      voice,
		minBytes:   minBytes,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Synthesize renders text as WAV audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	u, err := url.Parse(c.baseURL + "/api/text-to-speech")
	if err != nil {
		return nil, fmt.Errorf("bad service url: %w", err)
	}
	q := u.Query()
	q.Set("text", text)
	if c.voice != "" {
		q.Set("voice", c.voice)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts service returned status %d: %s", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) < c.minBytes {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrSynthesisFailed, len(audio), c.minBytes)
	}

	c.logger.Debugf("synthesized %d bytes in %s", len(audio), time.Since(start))
	return audio, nil
}
