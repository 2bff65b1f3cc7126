package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/echocare/internal/apiclient"
	"github.com/suPer8Hu/echocare/internal/kv"
	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/page/pagetest"
)

type fakeClient struct {
	calls []string
	res   *apiclient.AuthResult
	err   error
}

func (f *fakeClient) Login(_ context.Context, u, _ string) (*apiclient.AuthResult, error) {
	f.calls = append(f.calls, "login:"+u)
	return f.res, f.err
}

func (f *fakeClient) Register(_ context.Context, u, _ string) (*apiclient.AuthResult, error) {
	f.calls = append(f.calls, "register:"+u)
	return f.res, f.err
}

type fixture struct {
	ctrl  *Controller
	cli   *fakeClient
	store *kv.Memory
	nav   *pagetest.Navigator
	fx    *pagetest.Effects
	clk   *pagetest.Clock
}

func newFixture() *fixture {
	clk := pagetest.NewClock()
	f := &fixture{
		cli:   &fakeClient{res: &apiclient.AuthResult{Token: "tok-1"}},
		store: kv.NewMemory(),
		nav:   &pagetest.Navigator{},
		fx:    &pagetest.Effects{Clock: clk},
		clk:   clk,
	}
	f.ctrl = New(Deps{Client: f.cli, Storage: f.store, Navigator: f.nav, Effects: f.fx, Clock: clk})
	return f
}

func TestNavigateDelayExceedsTransition(t *testing.T) {
	assert.Greater(t, NavigateDelay, TransitionDuration)
}

func TestToggle_RelabelsAndClearsMessage(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "Continue", f.ctrl.ButtonLabel())
	assert.Equal(t, "Create one", f.ctrl.ToggleLabel())

	require.NoError(t, f.ctrl.Submit(context.Background(), "", ""))
	assert.NotEmpty(t, f.ctrl.Message())

	f.ctrl.Toggle()
	assert.Equal(t, ModeRegister, f.ctrl.Mode())
	assert.Equal(t, "Create account", f.ctrl.ButtonLabel())
	assert.Equal(t, "Log in instead", f.ctrl.ToggleLabel())
	assert.Empty(t, f.ctrl.Message())

	f.ctrl.Toggle()
	assert.Equal(t, ModeLogin, f.ctrl.Mode())
}

func TestSubmit_EmptyFieldsSendNothing(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.ctrl.Submit(context.Background(), "  alice ", "   "))
	assert.Equal(t, "Please fill both fields", f.ctrl.Message())
	assert.Empty(t, f.cli.calls)
}

func TestSubmit_UsesModeEndpoint(t *testing.T) {
	f := newFixture()
	f.ctrl.Toggle()
	require.NoError(t, f.ctrl.Submit(context.Background(), " bob ", "pw"))
	assert.Equal(t, []string{"register:bob"}, f.cli.calls)
}

func TestSubmit_ServerErrorShownVerbatim(t *testing.T) {
	f := newFixture()
	f.cli.err = &apiclient.APIError{Status: http.StatusUnauthorized, Message: "invalid_credentials"}
	require.NoError(t, f.ctrl.Submit(context.Background(), "alice", "pw"))
	assert.Equal(t, "invalid_credentials", f.ctrl.Message())

	f.cli.err = &apiclient.APIError{Status: http.StatusInternalServerError}
	require.NoError(t, f.ctrl.Submit(context.Background(), "alice", "pw"))
	assert.Equal(t, "Error", f.ctrl.Message())

	_, found, _ := f.store.Get(context.Background(), page.TokenKey)
	assert.False(t, found)
}

func TestSubmit_TransportError(t *testing.T) {
	f := newFixture()
	f.cli.err = errors.WithMessage(apiclient.ErrTransport, "dial tcp: refused")
	require.NoError(t, f.ctrl.Submit(context.Background(), "alice", "pw"))
	assert.Equal(t, "Network error. Ensure the server is running.", f.ctrl.Message())
	assert.Empty(t, f.nav.Paths)
}

func TestSubmit_SuccessStoresAndNavigatesAfterTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.ctrl.Submit(ctx, "alice", "pw"))

	tok, _, _ := f.store.Get(ctx, page.TokenKey)
	user, _, _ := f.store.Get(ctx, page.UsernameKey)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, "alice", user)

	require.Len(t, f.fx.Played, 1)
	assert.Equal(t, TransitionDuration, f.fx.Played[0].Duration)

	f.clk.Advance(TransitionDuration)
	assert.Empty(t, f.nav.Paths, "navigation must not cut the transition short")

	f.clk.Advance(NavigateDelay - TransitionDuration)
	assert.Equal(t, []string{page.PathChat}, f.nav.Paths)
}

func TestClose_DropsPendingNavigation(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.ctrl.Submit(context.Background(), "alice", "pw"))
	f.ctrl.Close()
	f.clk.Advance(NavigateDelay)
	assert.Empty(t, f.nav.Paths)
}
