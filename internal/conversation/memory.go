// Package conversation keeps the short-term dialogue state: the last few
// exchanges, the fallback phrase rotation, and exit phrase detection.
package conversation

import (
	"time"

	"github.com/xpanvictor/aria/pkg/assistant"
)

// Exchange is one completed user/assistant turn.
type Exchange struct {
	User      string
	Assistant string
	At        time.Time
}

// Memory holds the most recent exchanges, oldest first. Capacity is fixed at
// construction; recording past it drops the oldest exchange.
type Memory struct {
	max       int
	exchanges []Exchange
}

func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 5
	}
	return &Memory{max: max}
}

// Record appends a finished exchange, evicting the oldest when full.
func (m *Memory) Record(user, assistantReply string) {
	m.exchanges = append(m.exchanges, Exchange{
		User:      user,
		Assistant: assistantReply,
		At:        time.Now(),
	})
	if len(m.exchanges) > m.max {
		m.exchanges = m.exchanges[len(m.exchanges)-m.max:]
	}
}

// Len reports the number of retained exchanges.
func (m *Memory) Len() int { return len(m.exchanges) }

// Exchanges returns the retained exchanges, oldest first.
func (m *Memory) Exchanges() []Exchange {
	out := make([]Exchange, len(m.exchanges))
	copy(out, m.exchanges)
	return out
}

// Prompt builds the message list for the model: system prompt, retained
// history in order, then the current user input.
func (m *Memory) Prompt(systemPrompt, userInput string) []assistant.Message {
	msgs := make([]assistant.Message, 0, 2*len(m.exchanges)+2)
	if systemPrompt != "" {
		msgs = append(msgs, assistant.Message{
			Content: systemPrompt,
			MsgRole: assistant.SYSTEM,
		})
	}
	for _, ex := range m.exchanges {
		msgs = append(msgs,
			assistant.Message{Content: ex.User, MsgRole: assistant.USER, CreatedAt: ex.At},
			assistant.Message{Content: ex.Assistant, MsgRole: assistant.ASSISTANT, CreatedAt: ex.At},
		)
	}
	msgs = append(msgs, assistant.Message{
		Content:   userInput,
		MsgRole:   assistant.USER,
		CreatedAt: time.Now(),
	})
	return msgs
}
