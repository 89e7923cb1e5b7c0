package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

func TestLogoutClearsSessionAndGroups(t *testing.T) {
	s := NewStore()
	s.LoginSuccess("a@x.com", "tok", false)
	s.SetGroups([]models.Group{{ID: "g1"}, {ID: "g2"}})

	s.Logout()

	snap := s.Snapshot()
	assert.False(t, snap.Session.IsAuthenticated)
	assert.Empty(t, snap.Session.Email)
	assert.Empty(t, snap.Session.Token)
	assert.Empty(t, snap.Groups)
	assert.Empty(t, s.Token())
}

func TestSetGroupsForDropsEndedSession(t *testing.T) {
	s := NewStore()
	s.LoginSuccess("a@x.com", "tok-a", false)

	notified := 0
	s.Subscribe(func(Change) { notified++ })

	assert.True(t, s.SetGroupsFor("tok-a", []models.Group{{ID: "g1"}}))
	assert.Len(t, s.Groups(), 1)
	assert.Equal(t, 1, notified)

	s.Logout()
	notified = 0
	assert.False(t, s.SetGroupsFor("tok-a", []models.Group{{ID: "g1"}}))
	assert.Empty(t, s.Groups())
	assert.Zero(t, notified, "a dropped result is not a transition")

	s.LoginSuccess("b@x.com", "tok-b", false)
	notified = 0
	assert.False(t, s.SetGroupsFor("tok-a", []models.Group{{ID: "g1"}}), "another user's fetch")
	assert.Empty(t, s.Groups())
	assert.Zero(t, notified)
}

func TestSubscribeSeesEveryTransition(t *testing.T) {
	s := NewStore()

	var kinds []ChangeKind
	var last Change
	unsubscribe := s.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		last = c
	})

	s.LoginSuccess("a@x.com", "tok", true)
	assert.Equal(t, "a@x.com", last.Session.Email)
	assert.True(t, last.Session.Remember)

	s.SetGroups([]models.Group{{ID: "g1"}})
	assert.Len(t, last.Groups, 1)

	s.Logout()
	assert.Equal(t, []ChangeKind{ChangeLogin, ChangeGroups, ChangeLogout}, kinds)
	assert.Empty(t, last.Groups)

	unsubscribe()
	s.ResetGroups()
	assert.Len(t, kinds, 3)
}

func TestRestoreMarksHydrated(t *testing.T) {
	s := NewStore()
	require.False(t, s.Hydrated())

	s.Restore(Session{Email: "a@x.com", Token: "tok", IsAuthenticated: true}, []models.Group{{ID: "g1"}})

	assert.True(t, s.Hydrated())
	assert.Equal(t, "tok", s.Token())
	assert.Len(t, s.Groups(), 1)
}

func TestGroupsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.SetGroups([]models.Group{{ID: "g1", Name: "Flat"}})

	got := s.Groups()
	got[0].Name = "mutated"

	assert.Equal(t, "Flat", s.Groups()[0].Name)
}

func TestStoreConcurrentUse(t *testing.T) {
	s := NewStore()
	s.Subscribe(func(Change) {})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.LoginSuccess("a@x.com", "tok", false)
			s.SetGroups([]models.Group{{ID: "g1"}})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Token()
		}()
	}
	wg.Wait()

	assert.True(t, s.Session().IsAuthenticated)
}
