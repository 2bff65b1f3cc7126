package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/echocare/internal/kv"
	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/page/pagetest"
	"github.com/suPer8Hu/echocare/internal/reply"
)

// countingStore records writes to the conversation keys.
type countingStore struct {
	*kv.Memory
	mu     sync.Mutex
	writes int
	failOn string
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.writes++
	fail := c.failOn != "" && c.failOn == key
	c.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return c.Memory.Set(ctx, key, value)
}

func (c *countingStore) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type fakeNotifier struct {
	tokens []string
	err    error
}

func (f *fakeNotifier) Logout(_ context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

type harness struct {
	t       *testing.T
	store   *countingStore
	clk     *pagetest.Clock
	nav     *pagetest.Navigator
	confirm *pagetest.Confirmer
	client  *fakeNotifier
	m       *Manager
}

func newHarness(t *testing.T, seed string) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		store:   &countingStore{Memory: kv.NewMemory()},
		clk:     pagetest.NewClock(),
		nav:     &pagetest.Navigator{},
		confirm: &pagetest.Confirmer{Answer: true},
		client:  &fakeNotifier{},
	}
	ctx := context.Background()
	require.NoError(t, h.store.Memory.Set(ctx, page.TokenKey, "tok"))
	require.NoError(t, h.store.Memory.Set(ctx, page.UsernameKey, "alice"))
	if seed != "" {
		require.NoError(t, h.store.Memory.Set(ctx, page.ChatsKey("alice"), seed))
	}
	return h
}

func (h *harness) open() *Manager {
	h.t.Helper()
	m, err := Open(context.Background(), Deps{
		Storage:   h.store,
		Client:    h.client,
		Navigator: h.nav,
		Confirmer: h.confirm,
		Clock:     h.clk,
		Replies:   reply.Default(),
	})
	require.NoError(h.t, err)
	h.m = m
	h.t.Cleanup(m.Close)
	return m
}

func (h *harness) stored() []Conversation {
	h.t.Helper()
	raw, found, err := h.store.Get(context.Background(), page.ChatsKey("alice"))
	require.NoError(h.t, err)
	require.True(h.t, found)
	var out []Conversation
	require.NoError(h.t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestOpen_WithoutTokenRedirects(t *testing.T) {
	nav := &pagetest.Navigator{}
	_, err := Open(context.Background(), Deps{Storage: kv.NewMemory(), Navigator: nav})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, []string{page.PathLogin}, nav.Paths)
}

func TestOpen_NoPersistedChats(t *testing.T) {
	h := newHarness(t, "")
	m := h.open()

	s := m.State()
	require.Len(t, s.Conversations, 1)
	assert.Equal(t, "Home Chat", s.Conversations[0].Name)
	assert.Empty(t, s.Conversations[0].Messages)
	assert.Equal(t, s.Conversations[0].ID, s.ActiveID)
	assert.True(t, m.View().ShowWelcome)
	assert.Equal(t, 0, h.store.Writes(), "loading never writes")
}

func TestOpen_CorruptMatchesMissing(t *testing.T) {
	for _, seed := range []string{"{{{", `{"id":1}`, "[]", "null"} {
		h := newHarness(t, seed)
		m := h.open()
		s := m.State()
		require.Len(t, s.Conversations, 1, "seed %q", seed)
		assert.Equal(t, "Home Chat", s.Conversations[0].Name)
		assert.Empty(t, s.Conversations[0].Messages)
	}
}

func TestOpen_DefaultUsername(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(context.Background(), page.TokenKey, "tok"))
	m, err := Open(context.Background(), Deps{Storage: store, Navigator: &pagetest.Navigator{}, Clock: pagetest.NewClock()})
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, page.DefaultUsername, m.Username())
}

func TestSend_StressScenario(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"Home Chat","messages":[]}]`)
	m := h.open()
	ctx := context.Background()

	v := m.Send(ctx, "stress")
	assert.True(t, v.Typing)
	assert.False(t, v.ShowWelcome)
	assert.Equal(t, []Message{{Role: RoleUser, Text: "stress"}}, h.stored()[0].Messages)

	h.clk.Advance(ReplyDelay)

	want := []Message{
		{Role: RoleUser, Text: "stress"},
		{Role: RoleAssistant, Text: "Let's slow down and breathe. You've got this."},
	}
	assert.Equal(t, want, h.stored()[0].Messages)
	assert.Equal(t, want, m.View().Messages)
	assert.False(t, m.View().Typing)
}

func TestSend_TwoMessagesPerSend(t *testing.T) {
	h := newHarness(t, "")
	m := h.open()
	ctx := context.Background()

	m.Send(ctx, "I feel sad today")
	h.clk.Advance(ReplyDelay)
	m.Send(ctx, "I have an exam")
	h.clk.Advance(ReplyDelay)
	m.Send(ctx, "hello")
	h.clk.Advance(ReplyDelay)

	msgs := h.stored()[0].Messages
	require.Len(t, msgs, 6)
	for i, msg := range msgs {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, msg.Role)
		} else {
			assert.Equal(t, RoleAssistant, msg.Role)
		}
	}
	assert.Equal(t, reply.DefaultRules[0].Response, msgs[1].Text)
	assert.Equal(t, reply.DefaultRules[2].Response, msgs[3].Text)
	assert.Equal(t, reply.DefaultFallback, msgs[5].Text)
}

func TestSend_BlankIsSilent(t *testing.T) {
	h := newHarness(t, "")
	m := h.open()
	before := m.State()

	m.Send(context.Background(), "   \t ")
	h.clk.Advance(ReplyDelay)

	assert.Equal(t, before, m.State())
	assert.Equal(t, 0, h.store.Writes())
}

func TestSend_ReplyLandsInOriginatingConversation(t *testing.T) {
	h := newHarness(t, "")
	m := h.open()
	ctx := context.Background()
	home := m.State().ActiveID

	m.Send(ctx, "exam tomorrow")
	m.NewChat(ctx)
	h.clk.Advance(ReplyDelay)

	s := m.State()
	homeConv, _ := s.Find(home)
	assert.Len(t, homeConv.Messages, 2)
	assert.Empty(t, s.Active().Messages)
}

func TestDelete_CancelsPendingReply(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"A","messages":[]},{"id":2,"name":"B","messages":[]}]`)
	m := h.open()
	ctx := context.Background()

	m.Send(ctx, "sad")
	_, ok := m.Delete(ctx, 1)
	require.True(t, ok)
	h.clk.Advance(ReplyDelay)

	stored := h.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, int64(2), stored[0].ID)
	assert.Empty(t, stored[0].Messages)
}

func TestDelete_Confirmation(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"A","messages":[]},{"id":2,"name":"B","messages":[]}]`)
	h.confirm.Answer = false
	m := h.open()
	ctx := context.Background()

	m.OpenMenu(ctx, 2)
	v, ok := m.Delete(ctx, 2)
	assert.False(t, ok)
	assert.Len(t, v.Items, 2)
	assert.False(t, v.Items[1].MenuOpen)
	assert.Equal(t, []string{`Delete "B"?`}, h.confirm.Prompts)
	assert.Equal(t, 0, h.store.Writes())
}

func TestDelete_NonActiveKeepsActive(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"A","messages":[]},{"id":2,"name":"B","messages":[]}]`)
	m := h.open()
	ctx := context.Background()

	m.Switch(ctx, 2)
	m.Delete(ctx, 1)
	assert.Equal(t, int64(2), m.State().ActiveID)
	assert.Len(t, h.stored(), 1)
}

func TestDelete_OnlyConversation(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"Home Chat","messages":[{"role":"user","text":"old"}]}]`)
	m := h.open()
	ctx := context.Background()

	v, ok := m.Delete(ctx, 1)
	require.True(t, ok)
	assert.Empty(t, v.Items)
	assert.Equal(t, "Home Chat", v.ActiveName)
	assert.NotEqual(t, int64(1), v.ActiveID)
	assert.Empty(t, v.Messages)
	assert.True(t, v.ShowWelcome)
	assert.Empty(t, h.stored())

	m.Send(ctx, "hello again")
	stored := h.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, v.ActiveID, stored[0].ID)
}

func TestRename_PersistsOnlyRealChanges(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"Home Chat","messages":[]}]`)
	m := h.open()
	ctx := context.Background()

	m.Rename(ctx, 1, "")
	m.Rename(ctx, 1, "Home Chat")
	assert.Equal(t, 0, h.store.Writes())

	v := m.Rename(ctx, 1, "Finals week")
	assert.Equal(t, "Finals week", v.Items[0].Name)
	assert.False(t, v.Items[0].Editing)
	assert.Equal(t, "Finals week", h.stored()[0].Name)
}

func TestNewChat_UniqueIDsWithinMillisecond(t *testing.T) {
	h := newHarness(t, "")
	m := h.open()
	ctx := context.Background()

	m.NewChat(ctx)
	v := m.NewChat(ctx)
	require.Len(t, v.Items, 3)
	assert.Equal(t, "Chat 2", v.Items[1].Name)
	assert.Equal(t, "Chat 3", v.Items[2].Name)
	assert.True(t, v.Items[2].Active)
	assert.True(t, v.ShowWelcome)

	seen := map[int64]bool{}
	for _, it := range v.Items {
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
	}
	assert.Len(t, h.stored(), 3)
}

func TestSwitch_CueClearsAfterDelay(t *testing.T) {
	h := newHarness(t, `[{"id":1,"name":"A","messages":[]},{"id":2,"name":"B","messages":[{"role":"user","text":"x"}]}]`)
	m := h.open()
	ctx := context.Background()

	v := m.Switch(ctx, 2)
	assert.True(t, v.SwitchCue)
	assert.True(t, v.Items[1].Active)
	assert.False(t, v.ShowWelcome)
	assert.Equal(t, 0, h.store.Writes())

	h.clk.Advance(SwitchCueDuration)
	assert.False(t, m.View().SwitchCue)
}

func TestLogout_AlwaysClearsToken(t *testing.T) {
	h := newHarness(t, "")
	h.client.err = errors.New("connection refused")
	m := h.open()
	ctx := context.Background()

	m.Send(ctx, "sad")
	m.Logout(ctx)

	assert.Equal(t, []string{"tok"}, h.client.tokens)
	_, found, _ := h.store.Get(ctx, page.TokenKey)
	assert.False(t, found)
	assert.Equal(t, page.PathLogin, h.nav.Last())

	// the pending reply belonged to the closed session
	h.clk.Advance(ReplyDelay)
	assert.Len(t, h.stored()[0].Messages, 1)
}

func TestPersistFailureIsIgnored(t *testing.T) {
	h := newHarness(t, "")
	h.store.failOn = page.ChatsKey("alice")
	m := h.open()

	v := m.Send(context.Background(), "hello")
	assert.Len(t, v.Messages, 1)
}

func TestOnRender_ReceivesTimerUpdates(t *testing.T) {
	h := newHarness(t, "")
	var views []View
	m, err := Open(context.Background(), Deps{
		Storage:   h.store,
		Navigator: h.nav,
		Clock:     h.clk,
		OnRender:  func(v View) { views = append(views, v) },
	})
	require.NoError(t, err)
	defer m.Close()

	m.Send(context.Background(), "exam")
	h.clk.Advance(ReplyDelay)

	require.Len(t, views, 2)
	assert.True(t, views[0].Typing)
	assert.False(t, views[1].Typing)
	assert.Len(t, views[1].Messages, 2)
}

// blockingNotifier waits for the caller to give up.
type blockingNotifier struct{}

func (blockingNotifier) Logout(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestLogout_ClearsTokenWhenContextCancelled(t *testing.T) {
	store, err := kv.OpenSQLite("file:logout_cancelled?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	bg := context.Background()
	require.NoError(t, store.Set(bg, page.TokenKey, "tok"))
	require.NoError(t, store.Set(bg, page.UsernameKey, "alice"))

	nav := &pagetest.Navigator{}
	m, err := Open(bg, Deps{
		Storage:   store,
		Client:    blockingNotifier{},
		Navigator: nav,
		Clock:     pagetest.NewClock(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	cancel()
	m.Logout(ctx)

	assert.Equal(t, []string{page.PathLogin}, nav.Paths)
	_, found, err := store.Get(bg, page.TokenKey)
	require.NoError(t, err)
	assert.False(t, found, "token survived logout")
}

func TestZeroIDConversationRename(t *testing.T) {
	h := newHarness(t, `[{"id":0,"name":"A","messages":[]},{"id":3,"name":"B","messages":[]}]`)
	m := h.open()
	ctx := context.Background()

	assert.False(t, m.View().Items[0].MenuOpen)

	v := m.Rename(ctx, 0, "Renamed")
	assert.Equal(t, "Renamed", v.Items[0].Name)
	assert.Equal(t, 1, h.store.Writes())
	assert.Equal(t, "Renamed", h.stored()[0].Name)
}
