// Package page holds the runtime the page controllers share: local storage
// keys, navigation, confirmation prompts, visual effects and delayed tasks.
package page

import (
	"context"
	"time"
)

const (
	TokenKey        = "echocare_token"
	UsernameKey     = "echocare_username"
	chatsKeyPrefix  = "echocare_chats_"
	DefaultUsername = "default_user"
)

// Navigation targets.
const (
	PathLogin = "/login"
	PathChat  = "/chat"
)

// ChatsKey is the local storage key of a user's conversation collection.
func ChatsKey(username string) string {
	return chatsKeyPrefix + username
}

type Navigator interface {
	Navigate(path string)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Effects plays purely visual transitions. Implementations must not block.
type Effects interface {
	Transition(name string, d time.Duration)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// NoEffects discards every transition.
type NoEffects struct{}

func (NoEffects) Transition(string, time.Duration) {}
