// Package router composes assistant providers into a fallback chain.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/assistant"
)

// ErrAllProvidersFailed means every configured backend refused the prompt.
var ErrAllProvidersFailed = errors.New("all assistant providers failed")

// Mux is an assistant.Provider that tries its backends in configured order
// and returns the first successful reply.
type Mux struct {
	providers []assistant.Provider
	logger    *Logger.Logger
}

func New(providers []assistant.Provider, logger *Logger.Logger) *Mux {
	return &Mux{providers: providers, logger: logger}
}

func (m *Mux) Name() string { return "mux" }

// Providers returns the backend names in try order.
func (m *Mux) Providers() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// GenerateReply implements assistant.Provider.
func (m *Mux) GenerateReply(ctx context.Context, msgs []assistant.Message) (*assistant.Reply, error) {
	if len(m.providers) == 0 {
		return nil, fmt.Errorf("%w: none configured", ErrAllProvidersFailed)
	}
	var lastErr error
	for _, p := range m.providers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reply, err := p.GenerateReply(ctx, msgs)
		if err != nil {
			m.logger.Warnf("provider %s failed: %v", p.Name(), err)
			lastErr = err
			continue
		}
		return reply, nil
	}
	return nil, fmt.Errorf("%w: last error: %v", ErrAllProvidersFailed, lastErr)
}
