package assistant

import (
	"context"
	"time"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

// Message is one turn of the conversation as sent to a language model.
type Message struct {
	Content   string
	CreatedAt time.Time
	MsgRole   Role
}

// Reply is a model's answer to a prompt.
type Reply struct {
	Id       string
	Response Message
	Model    string
	Provider string
}

// Provider generates conversational replies. Implementations wrap one
// backend; the router composes them into a fallback chain.
type Provider interface {
	Name() string
	GenerateReply(ctx context.Context, msgs []Message) (*Reply, error)
}
