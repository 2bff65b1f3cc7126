// Package legacy is the older single-conversation page that asks the server
// for every reply. It keeps nothing between runs.
package legacy

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Speaker string

const (
	SpeakerUser Speaker = "You"
	SpeakerAI   Speaker = "Echo Care"
)

type Line struct {
	Speaker Speaker
	Text    string
}

func (l Line) String() string {
	return string(l.Speaker) + ": " + l.Text
}

type Client interface {
	Chat(ctx context.Context, message string) (string, error)
}

type Chat struct {
	client Client

	mu    sync.Mutex
	lines []Line
}

func New(client Client) *Chat {
	return &Chat{client: client}
}

// Send shows the message, posts it and shows the server's reply. On error
// the user's line stays and no reply is shown.
func (c *Chat) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.append(Line{Speaker: SpeakerUser, Text: text})

	resp, err := c.client.Chat(ctx, text)
	if err != nil {
		return errors.Wrap(err, "legacy chat")
	}
	c.append(Line{Speaker: SpeakerAI, Text: resp})
	return nil
}

func (c *Chat) append(l Line) {
	c.mu.Lock()
	c.lines = append(c.lines, l)
	c.mu.Unlock()
}

// Transcript returns the lines shown so far.
func (c *Chat) Transcript() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}
