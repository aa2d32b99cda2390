package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompatConfig configures a provider speaking the OpenAI chat API.
// BaseURL may point at OpenAI itself or any compatible gateway such as
// OpenRouter.
type OpenAICompatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	TopP        float64
}

type openAIProvider struct {
	client openai.Client
	cfg    OpenAICompatConfig
}

// NewOpenAICompat builds a Provider over the OpenAI chat completions API.
func NewOpenAICompat(cfg OpenAICompatConfig) Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT3_5Turbo
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 150
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.9
	}
	return openAIProvider{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (o openAIProvider) Name() string { return "openai" }

// GenerateReply implements Provider.
func (o openAIProvider) GenerateReply(ctx context.Context, msgs []Message) (*Reply, error) {
	convertedMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		convertedMsgs = append(convertedMsgs, convertToOpenaiMsg(msg))
	}
	chatCompletion, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages:    convertedMsgs,
			Model:       o.cfg.Model,
			Temperature: openai.Float(o.cfg.Temperature),
			MaxTokens:   openai.Int(o.cfg.MaxTokens),
			TopP:        openai.Float(o.cfg.TopP),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &Reply{
		Id: chatCompletion.ID,
		Response: Message{
			Content:   chatCompletion.Choices[0].Message.Content,
			CreatedAt: time.Now(),
			MsgRole:   ASSISTANT,
		},
		Model:    chatCompletion.Model,
		Provider: o.Name(),
	}, nil
}

func convertToOpenaiMsg(msg Message) openai.ChatCompletionMessageParamUnion {
	switch msg.MsgRole {
	case ASSISTANT:
		return openai.AssistantMessage(msg.Content)
	case USER:
		return openai.UserMessage(msg.Content)
	case SYSTEM:
		return openai.SystemMessage(msg.Content)
	}
	return openai.UserMessage(msg.Content)
}
