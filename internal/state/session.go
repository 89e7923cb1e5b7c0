// Package state holds the client's two shared containers, the session and
// the group cache, and persists them across restarts.
//
// Transitions are pure functions over plain values; Store applies them under
// a lock and notifies subscribers after each one.
package state

import "github.com/xNORAGAMIx/udhaari/internal/models"

// Session is the authentication container.
type Session struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`

	// Remember selects the durable persistence tier. It is not itself
	// persisted: a session found in the durable tier was remembered.
	Remember bool `json:"-"`
}

// LoginSuccess returns the authenticated session for email.
func LoginSuccess(_ Session, email, token string, remember bool) Session {
	return Session{
		Email:           email,
		Token:           token,
		IsAuthenticated: true,
		Remember:        remember,
	}
}

// Logout returns the unauthenticated empty session.
func Logout(Session) Session {
	return Session{}
}

// SetGroups replaces the cache with a copy of list.
func SetGroups(_ []models.Group, list []models.Group) []models.Group {
	return cloneGroups(list)
}

// AddGroup appends g to the cache.
func AddGroup(groups []models.Group, g models.Group) []models.Group {
	out := cloneGroups(groups)
	return append(out, cloneGroup(g))
}

// AddMemberToGroup appends member to the group with groupID. Unknown ids
// leave the cache unchanged.
func AddMemberToGroup(groups []models.Group, groupID string, member models.Member) []models.Group {
	out := cloneGroups(groups)
	for i := range out {
		if out[i].ID == groupID {
			out[i].Members = append(out[i].Members, member)
			break
		}
	}
	return out
}

// AddExpenseToGroup appends expense to the group with groupID. Unknown ids
// leave the cache unchanged.
func AddExpenseToGroup(groups []models.Group, groupID string, expense models.Expense) []models.Group {
	out := cloneGroups(groups)
	for i := range out {
		if out[i].ID == groupID {
			out[i].Expenses = append(out[i].Expenses, expense)
			break
		}
	}
	return out
}

// ResetGroups empties the cache.
func ResetGroups([]models.Group) []models.Group {
	return []models.Group{}
}

func cloneGroups(groups []models.Group) []models.Group {
	out := make([]models.Group, len(groups))
	for i, g := range groups {
		out[i] = cloneGroup(g)
	}
	return out
}

func cloneGroup(g models.Group) models.Group {
	g.Members = append([]models.Member(nil), g.Members...)
	g.Expenses = append([]models.Expense(nil), g.Expenses...)
	return g
}
