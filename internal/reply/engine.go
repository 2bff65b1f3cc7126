package reply

import "strings"

// Rule maps a lowercase substring trigger to a fixed response.
type Rule struct {
	Pattern  string
	Response string
}

const DefaultFallback = "I'm here and listening."

// DefaultRules is the companion's built-in trigger table, in evaluation order.
var DefaultRules = []Rule{
	{Pattern: "sad", Response: "It's okay to feel that way. Want to tell me what's been tough lately?"},
	{Pattern: "stress", Response: "Let's slow down and breathe. You've got this."},
	{Pattern: "exam", Response: "Exams are temporary — your growth is permanent."},
}

// Engine picks a canned reply with first-match-wins semantics.
type Engine struct {
	rules    []Rule
	fallback string
}

func New(rules []Rule, fallback string) *Engine {
	cp := make([]Rule, 0, len(rules))
	for _, r := range rules {
		p := strings.ToLower(r.Pattern)
		if p == "" {
			continue
		}
		cp = append(cp, Rule{Pattern: p, Response: r.Response})
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Engine{rules: cp, fallback: fallback}
}

func Default() *Engine {
	return New(DefaultRules, DefaultFallback)
}

// Reply returns the response of the first rule whose pattern occurs in the
// lowercased input, or the fallback.
func (e *Engine) Reply(input string) string {
	in := strings.ToLower(input)
	for _, r := range e.rules {
		if strings.Contains(in, r.Pattern) {
			return r.Response
		}
	}
	return e.fallback
}

// Rules returns a copy of the evaluated table.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}
