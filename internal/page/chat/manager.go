// Package chat is the multi-conversation chat page: a reducer over State,
// a pure Render projection and a Manager that persists every change.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/suPer8Hu/echocare/internal/kv"
	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/reply"
)

const (
	ReplyDelay        = 900 * time.Millisecond
	SwitchCueDuration = 300 * time.Millisecond

	switchCueGroup = "switch-cue"
)

var ErrNotAuthenticated = errors.New("chat: no stored session token")

// LogoutNotifier tells the server a session ended.
type LogoutNotifier interface {
	Logout(ctx context.Context, token string) error
}

type Deps struct {
	Storage   kv.Store
	Client    LogoutNotifier
	Navigator page.Navigator
	Confirmer page.Confirmer
	Effects   page.Effects
	Clock     page.Clock
	Replies   *reply.Engine
	Logger    *zap.Logger

	// OnRender, if set, receives the view after every dispatched action,
	// including replies that arrive from timers.
	OnRender func(View)
}

// Manager owns the chat page for one session. It is safe for use from the
// goroutines its own timers run on.
type Manager struct {
	deps  Deps
	tasks *page.Tasks
	ctx   context.Context

	token    string
	username string
	key      string

	mu     sync.Mutex
	state  State
	lastID int64
}

// Open loads the signed-in user's conversations. Without a stored token it
// navigates to the login page and returns ErrNotAuthenticated.
func Open(ctx context.Context, deps Deps) (*Manager, error) {
	if deps.Clock == nil {
		deps.Clock = page.RealClock
	}
	if deps.Effects == nil {
		deps.Effects = page.NoEffects{}
	}
	if deps.Replies == nil {
		deps.Replies = reply.Default()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Confirmer == nil {
		deps.Confirmer = page.ConfirmFunc(func(context.Context, string) bool { return true })
	}

	token, found, err := deps.Storage.Get(ctx, page.TokenKey)
	if err != nil || !found || token == "" {
		if err != nil {
			deps.Logger.Warn("read session token", zap.Error(err))
		}
		deps.Navigator.Navigate(page.PathLogin)
		return nil, ErrNotAuthenticated
	}

	username, found, err := deps.Storage.Get(ctx, page.UsernameKey)
	if err != nil || !found || username == "" {
		username = page.DefaultUsername
	}

	m := &Manager{
		deps:     deps,
		tasks:    page.NewTasks(deps.Clock),
		ctx:      context.WithoutCancel(ctx),
		token:    token,
		username: username,
		key:      page.ChatsKey(username),
	}

	raw, _, err := deps.Storage.Get(ctx, m.key)
	if err != nil {
		deps.Logger.Warn("read conversations", zap.String("key", m.key), zap.Error(err))
		raw = ""
	}
	convs, ok := decodeCollection(raw)
	if !ok && raw != "" {
		deps.Logger.Info("discarding unreadable conversations", zap.String("key", m.key))
	}
	for _, c := range convs {
		if c.ID > m.lastID {
			m.lastID = c.ID
		}
	}
	m.state = NewState(convs, m.nextID())

	deps.Logger.Debug("chat page opened",
		zap.String("user", username),
		zap.Int("conversations", len(m.state.Conversations)))
	return m, nil
}

func (m *Manager) Username() string { return m.username }

// nextID returns the creation timestamp, bumped past the last issued ID so
// conversations created within one millisecond stay distinct. Caller holds
// m.mu or is the constructor.
func (m *Manager) nextID() int64 {
	id := m.deps.Clock.Now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

// View renders the current state.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Render(m.state)
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// dispatch reduces the action built under the lock, persists if the
// collection changed and publishes the new view.
func (m *Manager) dispatch(ctx context.Context, build func() Action) (View, bool) {
	m.mu.Lock()
	next, changed := Reduce(m.state, build())
	m.state = next
	if changed {
		m.persist(ctx)
	}
	v := Render(m.state)
	m.mu.Unlock()

	if m.deps.OnRender != nil {
		m.deps.OnRender(v)
	}
	return v, changed
}

// persist writes the whole collection. Storage failures are logged only.
// Caller holds m.mu.
func (m *Manager) persist(ctx context.Context) {
	raw, err := encodeCollection(m.state.Conversations)
	if err != nil {
		m.deps.Logger.Error("encode conversations", zap.Error(err))
		return
	}
	if err := m.deps.Storage.Set(ctx, m.key, raw); err != nil {
		m.deps.Logger.Warn("persist conversations", zap.String("key", m.key), zap.Error(err))
	}
}

func replyGroup(id int64) string {
	return "reply:" + strconv.FormatInt(id, 10)
}

func (m *Manager) NewChat(ctx context.Context) View {
	v, _ := m.dispatch(ctx, func() Action { return NewChat{ID: m.nextID()} })
	return v
}

func (m *Manager) Switch(ctx context.Context, id int64) View {
	m.mu.Lock()
	_, ok := m.state.Find(id)
	m.mu.Unlock()
	if !ok {
		return m.View()
	}

	v, _ := m.dispatch(ctx, func() Action { return Switch{ID: id} })
	m.deps.Effects.Transition("fade-switch", SwitchCueDuration)
	m.tasks.Cancel(switchCueGroup)
	m.tasks.After(switchCueGroup, SwitchCueDuration, func() {
		m.dispatch(m.ctx, func() Action { return ClearSwitchCue{} })
	})
	return v
}

func (m *Manager) OpenMenu(ctx context.Context, id int64) View {
	v, _ := m.dispatch(ctx, func() Action { return OpenMenu{ID: id} })
	return v
}

func (m *Manager) CloseMenus(ctx context.Context) View {
	v, _ := m.dispatch(ctx, func() Action { return CloseMenus{} })
	return v
}

func (m *Manager) BeginRename(ctx context.Context, id int64) View {
	v, _ := m.dispatch(ctx, func() Action { return BeginRename{ID: id} })
	return v
}

// CommitRename is called on blur or Enter with the edit field's value.
func (m *Manager) CommitRename(ctx context.Context, value string) View {
	v, _ := m.dispatch(ctx, func() Action { return CommitRename{Value: value} })
	return v
}

// Rename is BeginRename followed by CommitRename.
func (m *Manager) Rename(ctx context.Context, id int64, name string) View {
	m.BeginRename(ctx, id)
	return m.CommitRename(ctx, name)
}

// Delete asks for confirmation, then removes the conversation and drops any
// reply still pending for it.
func (m *Manager) Delete(ctx context.Context, id int64) (View, bool) {
	m.mu.Lock()
	c, ok := m.state.Find(id)
	m.mu.Unlock()
	if !ok {
		return m.View(), false
	}

	if !m.deps.Confirmer.Confirm(ctx, fmt.Sprintf("Delete %q?", c.Name)) {
		return m.CloseMenus(ctx), false
	}
	m.tasks.Cancel(replyGroup(id))
	v, _ := m.dispatch(ctx, func() Action { return Delete{ID: id, FreshID: m.nextID()} })
	return v, true
}

// Send appends the user's message to the active conversation and schedules
// the local reply. Blank input changes nothing.
func (m *Manager) Send(ctx context.Context, text string) View {
	m.mu.Lock()
	target := m.state.ActiveID
	m.mu.Unlock()

	v, sent := m.dispatch(ctx, func() Action {
		return SendMessage{ConversationID: target, Text: text}
	})
	if !sent {
		return v
	}

	answer := m.deps.Replies.Reply(text)
	m.tasks.After(replyGroup(target), ReplyDelay, func() {
		m.dispatch(m.ctx, func() Action { return ReceiveReply{ConversationID: target, Text: answer} })
	})
	return v
}

// Logout notifies the server on a best-effort basis, then always forgets
// the token and returns to the login page.
func (m *Manager) Logout(ctx context.Context) {
	m.tasks.Close()
	defer func() {
		// the caller may have given up on the notification; the token goes regardless
		if err := m.deps.Storage.Remove(context.WithoutCancel(ctx), page.TokenKey); err != nil {
			m.deps.Logger.Warn("remove session token", zap.Error(err))
		}
		m.deps.Navigator.Navigate(page.PathLogin)
	}()

	if m.deps.Client == nil {
		return
	}
	if err := m.deps.Client.Logout(ctx, m.token); err != nil {
		m.deps.Logger.Debug("logout notification failed", zap.Error(err))
	}
}

// Close cancels every pending reply and cue. Later timer callbacks are dropped.
func (m *Manager) Close() {
	m.tasks.Close()
}
