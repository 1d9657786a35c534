package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/escolario/internal/dispatch"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDispatcher(t *testing.T, e *env) *dispatch.Dispatcher {
	t.Helper()
	d := dispatch.New(2, logging.Discard())
	d.Start(context.Background())
	t.Cleanup(func() { _ = d.Close() })
	e.svc.tasks = d
	return d
}

// runNext plays the UI loop for a single event.
func runNext(t *testing.T, d *dispatch.Dispatcher) {
	t.Helper()
	select {
	case fn := <-d.Events():
		fn()
	case <-time.After(3 * time.Second):
		t.Fatal("no UI event")
	}
}

func TestBootstrapAsyncThenLoginAsync(t *testing.T) {
	e := setup(t)
	d := withDispatcher(t, e)

	var boot Outcome
	require.NoError(t, e.svc.BootstrapAsync(func(o Outcome) { boot = o }))

	var login Outcome
	require.NoError(t, e.svc.LoginAsync("admin@escolario.com", "Admin123", func(o Outcome) { login = o }))

	runNext(t, d)
	runNext(t, d)

	require.NoError(t, boot.Err)
	require.NoError(t, login.Err)
	assert.Equal(t, RedirectAdmin, login.Redirect)
	assert.Empty(t, login.Message)
	assert.True(t, e.sess.IsLoggedIn())
}

func TestLoginAsync_FailureCarriesMessage(t *testing.T) {
	e := setup(t)
	d := withDispatcher(t, e)

	var out Outcome
	require.NoError(t, e.svc.LoginAsync("none@x.com", "anything", func(o Outcome) { out = o }))
	runNext(t, d)

	require.Error(t, out.Err)
	assert.Equal(t, RedirectNone, out.Redirect)
	assert.Equal(t, "Credenciais inválidas", out.Message)
}

func TestRegisterAsync_ProgressBracketsWork(t *testing.T) {
	e := setup(t)
	d := withDispatcher(t, e)

	var progress []bool
	var out Outcome
	require.NoError(t, e.svc.RegisterAsync(ana(), func(busy bool) {
		progress = append(progress, busy)
	}, func(o Outcome) {
		out = o
	}))

	assert.Equal(t, []bool{true}, progress, "busy is signalled before the work starts")

	runNext(t, d)

	assert.Equal(t, []bool{true, false}, progress)
	require.NoError(t, out.Err)
	assert.Equal(t, "Cadastro realizado!", out.Message)
	require.NotNil(t, out.User)
	assert.Equal(t, "ana@x.com", out.User.Email)
}

func TestRegisterAsync_ValidationFailureStillEndsProgress(t *testing.T) {
	e := setup(t)
	d := withDispatcher(t, e)

	var progress []bool
	var out Outcome
	f := ana()
	f.Password = "123"
	require.NoError(t, e.svc.RegisterAsync(f, func(busy bool) { progress = append(progress, busy) }, func(o Outcome) { out = o }))
	runNext(t, d)

	assert.Equal(t, []bool{true, false}, progress)
	assert.Equal(t, MsgPasswordTooShort, out.Message)
}

func TestAsync_WithoutSubmitter(t *testing.T) {
	e := setup(t)

	require.ErrorIs(t, e.svc.LoginAsync("a@b.com", "x", nil), ErrNoSubmitter)

	var progress []bool
	err := e.svc.RegisterAsync(ana(), func(busy bool) { progress = append(progress, busy) }, nil)
	require.ErrorIs(t, err, ErrNoSubmitter)
	assert.Equal(t, []bool{true, false}, progress)

	require.ErrorIs(t, e.svc.BootstrapAsync(nil), ErrNoSubmitter)

	// the gate armed by BootstrapAsync was released
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = e.svc.Login(ctx, "none@x.com", "anything")
	assert.Equal(t, MsgInvalidCredentials, Message(err))
}

func TestAsync_AfterDispatcherClosed(t *testing.T) {
	e := setup(t)
	d := withDispatcher(t, e)
	require.NoError(t, d.Close())

	require.ErrorIs(t, e.svc.LoginAsync("a@b.com", "x", nil), dispatch.ErrClosed)
}
