package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/xpanvictor/aria/pkg/assistant"
)

// Config holds Gemini credentials and the model to use.
type Config struct {
	APIKey string
	Model  string
}

// Provider generates replies through the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Close() error { return p.client.Close() }

// GenerateReply implements assistant.Provider. Prior turns become chat
// history; the final user message is the prompt.
func (p *Provider) GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	model := p.client.GenerativeModel(p.model)

	var history []*genai.Content
	for _, m := range msgs[:len(msgs)-1] {
		switch m.MsgRole {
		case assistant.SYSTEM:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
		case assistant.ASSISTANT:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		default:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(msgs[len(msgs)-1].Content))
	if err != nil {
		return nil, fmt.Errorf("gemini chat failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return &assistant.Reply{
		Id: uuid.NewString(),
		Response: assistant.Message{
			Content:   sb.String(),
			CreatedAt: time.Now(),
			MsgRole:   assistant.ASSISTANT,
		},
		Model:    p.model,
		Provider: p.Name(),
	}, nil
}
