package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/api/apitest"
	"github.com/xNORAGAMIx/udhaari/internal/config"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.StateDir = t.TempDir()
	return cfg
}

func TestRememberedSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "pw-a")
	cfg := testConfig(t, srv.BaseURL())

	a, err := Open(ctx, cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.True(t, a.Store.Hydrated())
	assert.False(t, a.Store.Session().IsAuthenticated)

	a.Store.LoginSuccess("a@x.com", srv.Token("a@x.com"), true)
	require.NoError(t, a.Close())

	b, err := Open(ctx, cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer b.Close()

	s := b.Store.Session()
	assert.True(t, s.IsAuthenticated)
	assert.True(t, s.Remember)
	assert.Equal(t, "a@x.com", s.Email)

	// The restored token is sent on the next call.
	profile, err := b.Client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile.Name)
}

func TestSessionTierDoesNotSurviveRestart(t *testing.T) {
	ctx := context.Background()
	srv := apitest.NewServer(t)
	cfg := testConfig(t, srv.BaseURL())

	a, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	a.Store.LoginSuccess("a@x.com", srv.Token("a@x.com"), false)
	require.NoError(t, a.Close())

	b, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	assert.False(t, b.Store.Session().IsAuthenticated)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "not a url")
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t, "http://localhost:8080/api/v1")
	cfg.StateKey = "zz"
	_, err = Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
