package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/api"
	"github.com/xNORAGAMIx/udhaari/internal/api/apitest"
	"github.com/xNORAGAMIx/udhaari/internal/state"
)

type env struct {
	srv    *apitest.Server
	client *api.Client
	store  *state.Store
}

// newEnv starts a fake backend with Asha (a@x.com) and Bilal (b@x.com).
func newEnv(t *testing.T) *env {
	t.Helper()

	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "pw-a")
	srv.AddUser("Bilal", "b@x.com", "pw-b")

	store := state.NewStore()
	client, err := api.New(api.Options{
		BaseURL: srv.BaseURL(),
		Timeout: 5 * time.Second,
		Token:   store.Token,
	})
	require.NoError(t, err)

	return &env{srv: srv, client: client, store: store}
}

func (e *env) loginAs(email string) {
	e.store.LoginSuccess(email, e.srv.Token(email), false)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
