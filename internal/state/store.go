package state

import (
	"sync"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// ChangeKind names the transition that produced a Change.
type ChangeKind int

const (
	ChangeLogin ChangeKind = iota + 1
	ChangeLogout
	ChangeGroups
	ChangeRestore
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeLogin:
		return "login"
	case ChangeLogout:
		return "logout"
	case ChangeGroups:
		return "groups"
	case ChangeRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of both containers.
type Snapshot struct {
	Session  Session
	Groups   []models.Group
	Hydrated bool
}

// Change is delivered to subscribers after every transition.
type Change struct {
	Kind ChangeKind
	Snapshot
}

// Store owns the session and group cache. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	session  Session
	groups   []models.Group
	hydrated bool

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int

	// applyMu orders transitions so subscribers see them in sequence.
	applyMu sync.Mutex
}

// NewStore returns an empty, not yet hydrated Store.
func NewStore() *Store {
	return &Store{
		groups: []models.Group{},
		subs:   make(map[int]func(Change)),
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Session:  s.session,
		Groups:   cloneGroups(s.groups),
		Hydrated: s.hydrated,
	}
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Token returns the session token, or "" when logged out. It satisfies
// api.TokenSource.
func (s *Store) Token() string {
	return s.Session().Token
}

func (s *Store) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGroups(s.groups)
}

// Hydrated reports whether persisted state has been restored.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) LoginSuccess(email, token string, remember bool) {
	s.apply(ChangeLogin, func() {
		s.session = LoginSuccess(s.session, email, token, remember)
	})
}

// Logout clears the session and the group cache in one transition.
func (s *Store) Logout() {
	s.apply(ChangeLogout, func() {
		s.session = Logout(s.session)
		s.groups = ResetGroups(s.groups)
	})
}

func (s *Store) SetGroups(list []models.Group) {
	s.apply(ChangeGroups, func() {
		s.groups = SetGroups(s.groups, list)
	})
}

// SetGroupsFor replaces the group cache only while the session holding token
// is still the current one. A fetch that was in flight across a logout or a
// change of user is dropped; the result reports whether list was applied.
func (s *Store) SetGroupsFor(token string, list []models.Group) bool {
	return s.applyIf(ChangeGroups, func() bool {
		if !s.session.IsAuthenticated || s.session.Token != token {
			return false
		}
		s.groups = SetGroups(s.groups, list)
		return true
	})
}

func (s *Store) AddGroup(g models.Group) {
	s.apply(ChangeGroups, func() {
		s.groups = AddGroup(s.groups, g)
	})
}

func (s *Store) AddMemberToGroup(groupID string, member models.Member) {
	s.apply(ChangeGroups, func() {
		s.groups = AddMemberToGroup(s.groups, groupID, member)
	})
}

func (s *Store) AddExpenseToGroup(groupID string, expense models.Expense) {
	s.apply(ChangeGroups, func() {
		s.groups = AddExpenseToGroup(s.groups, groupID, expense)
	})
}

func (s *Store) ResetGroups() {
	s.apply(ChangeGroups, func() {
		s.groups = ResetGroups(s.groups)
	})
}

// Restore installs rehydrated state and marks the Store hydrated.
func (s *Store) Restore(session Session, groups []models.Group) {
	s.apply(ChangeRestore, func() {
		s.session = session
		s.groups = SetGroups(s.groups, groups)
		s.hydrated = true
	})
}

// Subscribe registers fn to run after every transition, outside the state
// lock. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Subscribers must not call back into a transition method.
func (s *Store) apply(kind ChangeKind, transition func()) {
	s.applyIf(kind, func() bool {
		transition()
		return true
	})
}

// applyIf runs transition under the state lock and notifies subscribers only
// when it reports a change.
func (s *Store) applyIf(kind ChangeKind, transition func() bool) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if !transition() {
		s.mu.Unlock()
		return false
	}
	change := Change{Kind: kind, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return true
}
