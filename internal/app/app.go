// Package app wires the client together: configuration, the two persistence
// tiers, the rehydrated store and the API client.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xNORAGAMIx/udhaari/internal/api"
	"github.com/xNORAGAMIx/udhaari/internal/config"
	"github.com/xNORAGAMIx/udhaari/internal/state"
	"github.com/xNORAGAMIx/udhaari/internal/storage"
	"github.com/xNORAGAMIx/udhaari/internal/storage/memory"
	"github.com/xNORAGAMIx/udhaari/internal/storage/redis"
	"github.com/xNORAGAMIx/udhaari/internal/storage/sqlite"
)

// App is a running client.
type App struct {
	Config    config.Config
	Store     *state.Store
	Persistor *state.Persistor
	Client    *api.Client

	durable storage.Store
	session storage.Store
}

// Open builds the client from cfg and restores any persisted session.
// reg receives the API metrics; nil skips them.
func Open(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	durable, err := openDurable(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Store:   state.NewStore(),
		durable: durable,
		session: memory.New(),
	}

	var metrics *api.Metrics
	if reg != nil {
		metrics = api.NewMetrics(reg)
	}
	a.Client, err = api.New(api.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Token:   a.Store.Token,
		Metrics: metrics,
	})
	if err != nil {
		a.closeStores()
		return nil, err
	}

	a.Persistor = state.NewPersistor(a.Store, a.durable, a.session)
	// An unreadable tier still leaves the store hydrated and signed out.
	if err := a.Persistor.Rehydrate(ctx); err != nil {
		slog.Warn("Failed to restore session", "error", err)
	}

	s := a.Store.Session()
	slog.Info("Client ready",
		"base_url", cfg.BaseURL,
		"state_backend", cfg.StateBackend,
		"authenticated", s.IsAuthenticated,
		"email", s.Email,
	)
	return a, nil
}

// Close detaches persistence and releases both tiers.
func (a *App) Close() error {
	a.Persistor.Close()
	return a.closeStores()
}

func (a *App) closeStores() error {
	return errors.Join(a.durable.Close(), a.session.Close())
}

// openDurable opens the configured durable tier and seals it.
func openDurable(ctx context.Context, cfg config.Config) (storage.Store, error) {
	secret, err := sealingSecret(cfg)
	if err != nil {
		return nil, err
	}

	var inner storage.Store
	switch cfg.StateBackend {
	case config.BackendRedis:
		inner, err = redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		inner, err = sqlite.New(cfg.DBPath())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s state: %w", cfg.StateBackend, err)
	}

	sealed, err := storage.NewSealed(inner, secret)
	if err != nil {
		inner.Close()
		return nil, err
	}
	return sealed, nil
}

func sealingSecret(cfg config.Config) ([]byte, error) {
	if cfg.StateKey != "" {
		return storage.ParseSecret(cfg.StateKey)
	}
	return storage.LoadOrCreateSecret(cfg.KeyPath())
}
