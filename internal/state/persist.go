package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xNORAGAMIx/udhaari/internal/auth"
	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/storage"
)

// Persisted keys.
const (
	KeyAuth   = "auth"
	KeyGroups = "groups"
)

// persistTimeout bounds each write triggered by a transition.
const persistTimeout = 5 * time.Second

type persistedGroups struct {
	Groups []models.Group `json:"groups"`
}

// Persistor mirrors the Store into two tiers. A remembered session lives in
// the durable tier; anything else lives in the session tier, which dies with
// the process.
type Persistor struct {
	store   *Store
	durable storage.Store
	session storage.Store
	now     func() time.Time

	unsubscribe func()
}

// NewPersistor wires store to the durable and session tiers. Nothing is read
// or written until Rehydrate.
func NewPersistor(store *Store, durable, session storage.Store) *Persistor {
	return &Persistor{
		store:   store,
		durable: durable,
		session: session,
		now:     time.Now,
	}
}

// Rehydrate restores persisted state into the Store, marks it hydrated and
// starts persisting further transitions.
//
// The session tier is consulted before the durable tier. A stored JWT that
// has already expired is discarded along with the cached groups. On a read
// error the Store is still hydrated, empty, and the error is returned.
func (p *Persistor) Rehydrate(ctx context.Context) error {
	session, groups, err := p.load(ctx)
	if err != nil {
		p.store.Restore(Session{}, nil)
		p.attach()
		return err
	}

	if session.IsAuthenticated && auth.Expired(session.Token, p.now()) {
		slog.Info("Stored session expired, signing out", "email", session.Email)
		if err := p.Purge(ctx); err != nil {
			slog.Warn("Failed to purge expired session", "error", err)
		}
		session, groups = Session{}, nil
	}

	p.store.Restore(session, groups)
	p.attach()

	slog.Debug("State rehydrated",
		"authenticated", session.IsAuthenticated,
		"remember", session.Remember,
		"groups", len(groups),
	)
	return nil
}

func (p *Persistor) attach() {
	if p.unsubscribe == nil {
		p.unsubscribe = p.store.Subscribe(p.onChange)
	}
}

// Close stops persisting transitions. It does not close the tiers.
func (p *Persistor) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

func (p *Persistor) load(ctx context.Context) (Session, []models.Group, error) {
	var session Session
	tier, err := p.read(ctx, KeyAuth, &session)
	if err != nil {
		return Session{}, nil, err
	}
	session.Remember = tier == p.durable && session.IsAuthenticated

	var groups persistedGroups
	if _, err := p.read(ctx, KeyGroups, &groups); err != nil {
		return Session{}, nil, err
	}
	return session, groups.Groups, nil
}

// read decodes key from the first tier that has it and returns that tier, or
// nil when neither does.
func (p *Persistor) read(ctx context.Context, key string, v any) (storage.Store, error) {
	for _, tier := range []storage.Store{p.session, p.durable} {
		data, err := tier.Get(ctx, key)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			continue
		case errors.Is(err, storage.ErrSealBroken):
			// Written under another key; unreadable for good.
			slog.Warn("Discarding unreadable persisted state", "key", key)
			if err := tier.Delete(ctx, key); err != nil {
				return nil, fmt.Errorf("failed to discard %s: %w", key, err)
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		if err := json.Unmarshal(data, v); err != nil {
			slog.Warn("Discarding corrupt persisted state", "key", key, "error", err)
			continue
		}
		return tier, nil
	}
	return nil, nil
}

// Purge removes both keys from both tiers.
func (p *Persistor) Purge(ctx context.Context) error {
	var errs []error
	for _, tier := range []storage.Store{p.session, p.durable} {
		for _, key := range []string{KeyAuth, KeyGroups} {
			if err := tier.Delete(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Persistor) onChange(c Change) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := p.persist(ctx, c); err != nil {
		slog.Error("Failed to persist state", "change", c.Kind, "error", err)
	}
}

func (p *Persistor) persist(ctx context.Context, c Change) error {
	switch c.Kind {
	case ChangeRestore:
		return nil
	case ChangeLogout:
		return p.Purge(ctx)
	}

	active, other := p.session, p.durable
	if c.Session.Remember {
		active, other = p.durable, p.session
	}

	if c.Kind == ChangeLogin {
		if err := p.write(ctx, active, KeyAuth, c.Session); err != nil {
			return err
		}
	}
	if err := p.write(ctx, active, KeyGroups, persistedGroups{Groups: c.Groups}); err != nil {
		return err
	}

	// Only one tier may hold the state at a time.
	for _, key := range []string{KeyAuth, KeyGroups} {
		if err := other.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *Persistor) write(ctx context.Context, tier storage.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := tier.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
