package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"

	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/assistant"
)

// Config lists the Ollama servers to pool and the model to chat with.
type Config struct {
	URLs  []string
	Model string
}

// Provider routes chat requests across a farm of Ollama servers, picking the
// first one that is online.
type Provider struct {
	farm   *ollamafarm.Farm
	model  string
	logger *Logger.Logger
}

func New(cfg Config, logger *Logger.Logger) *Provider {
	farm := ollamafarm.New()
	for _, u := range cfg.URLs {
		if err := farm.RegisterURL(u, nil); err != nil {
			logger.Warnf("failed to register ollama server %s: %v", u, err)
		}
	}
	model := cfg.Model
	if model == "" {
		model = "llama3:8b"
	}
	return &Provider{farm: farm, model: model, logger: logger}
}

func (p *Provider) Name() string { return "ollama" }

// GenerateReply implements assistant.Provider.
func (p *Provider) GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error) {
	ollama := p.farm.First(&ollamafarm.Where{Offline: false})
	if ollama == nil {
		return nil, fmt.Errorf("no ollama server online for model %s", p.model)
	}

	apiMsgs := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		apiMsgs = append(apiMsgs, api.Message{
			Role:    string(m.MsgRole),
			Content: m.Content,
		})
	}

	stream := false
	req := api.ChatRequest{
		Model:    p.model,
		Messages: apiMsgs,
		Stream:   &stream,
	}

	var sb strings.Builder
	err := ollama.Client().Chat(ctx, &req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
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
