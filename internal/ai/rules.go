package ai

import (
	"context"

	"github.com/suPer8Hu/echocare/internal/reply"
)

// RulesProvider answers from the local trigger table, ignoring history.
type RulesProvider struct {
	Engine *reply.Engine
}

func NewRulesProvider(e *reply.Engine) *RulesProvider {
	if e == nil {
		e = reply.Default()
	}
	return &RulesProvider{Engine: e}
}

func (p *RulesProvider) Chat(_ context.Context, messages []Message) (string, error) {
	return p.Engine.Reply(LastUserMessage(messages)), nil
}
