// Package auth is the login / registration page.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/suPer8Hu/echocare/internal/apiclient"
	"github.com/suPer8Hu/echocare/internal/kv"
	"github.com/suPer8Hu/echocare/internal/page"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Navigation must wait for the transition to finish.
const (
	TransitionDuration = 1600 * time.Millisecond
	NavigateDelay      = 1650 * time.Millisecond
	TransitionName     = "expand-circle"
)

const (
	msgFillBoth     = "Please fill both fields"
	msgGenericError = "Error"
	msgNetwork      = "Network error. Ensure the server is running."
)

// Client is the subset of the backend API this page uses.
type Client interface {
	Login(ctx context.Context, username, password string) (*apiclient.AuthResult, error)
	Register(ctx context.Context, username, password string) (*apiclient.AuthResult, error)
}

type Deps struct {
	Client    Client
	Storage   kv.Store
	Navigator page.Navigator
	Effects   page.Effects
	Clock     page.Clock
	Logger    *zap.Logger
}

// Controller holds the page state. Labels and Message are what the page shows.
type Controller struct {
	deps  Deps
	tasks *page.Tasks

	mu      sync.Mutex
	mode    Mode
	message string
}

func New(deps Deps) *Controller {
	if deps.Effects == nil {
		deps.Effects = page.NoEffects{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{deps: deps, tasks: page.NewTasks(deps.Clock)}
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Message is the inline error text, empty when there is none.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// ButtonLabel is the primary action label for the current mode.
func (c *Controller) ButtonLabel() string {
	if c.Mode() == ModeRegister {
		return "Create account"
	}
	return "Continue"
}

// ToggleLabel is the mode-switch link label for the current mode.
func (c *Controller) ToggleLabel() string {
	if c.Mode() == ModeRegister {
		return "Log in instead"
	}
	return "Create one"
}

func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeLogin {
		c.mode = ModeRegister
	} else {
		c.mode = ModeLogin
	}
	c.message = ""
}

func (c *Controller) setMessage(m string) {
	c.mu.Lock()
	c.message = m
	c.mu.Unlock()
}

// Submit sends the credentials for the current mode. A failed attempt only
// sets Message; the user has to submit again.
func (c *Controller) Submit(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	c.setMessage("")

	if username == "" || password == "" {
		c.setMessage(msgFillBoth)
		return nil
	}

	mode := c.Mode()
	var (
		res *apiclient.AuthResult
		err error
	)
	if mode == ModeLogin {
		res, err = c.deps.Client.Login(ctx, username, password)
	} else {
		res, err = c.deps.Client.Register(ctx, username, password)
	}
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = msgGenericError
			}
			c.setMessage(msg)
			return nil
		}
		c.deps.Logger.Warn("auth request failed", zap.String("mode", mode.String()), zap.Error(err))
		c.setMessage(msgNetwork)
		return nil
	}

	if err := c.deps.Storage.Set(ctx, page.TokenKey, res.Token); err != nil {
		return errors.Wrap(err, "store token")
	}
	if err := c.deps.Storage.Set(ctx, page.UsernameKey, username); err != nil {
		return errors.Wrap(err, "store username")
	}

	c.deps.Effects.Transition(TransitionName, TransitionDuration)
	c.tasks.After("navigate", NavigateDelay, func() {
		c.deps.Navigator.Navigate(page.PathChat)
	})
	return nil
}

// Close drops a pending navigation.
func (c *Controller) Close() {
	c.tasks.Close()
}
