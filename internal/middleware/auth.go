package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/xNORAGAMIx/udhaari/internal/state"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const logFieldsKey contextKey = "log_fields"

// LoginPath is where unauthenticated visitors of protected pages are sent.
const LoginPath = "/login"

// SessionGate is what the route gates need from the state store.
type SessionGate interface {
	Session() state.Session
	Hydrated() bool
}

// RequireSession guards protected pages. Until persisted state is restored it
// answers 503 so that a remembered user is never bounced to the login page;
// after that, visitors without a session are redirected to LoginPath.
func RequireSession(gate SessionGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Hydrated() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
				return
			}

			s := gate.Session()
			if !s.IsAuthenticated {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			if f, ok := r.Context().Value(logFieldsKey).(*logFields); ok {
				f.email = s.Email
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RedirectIfAuthenticated sends signed-in visitors of the login and sign-up
// pages to target.
func RedirectIfAuthenticated(gate SessionGate, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate.Hydrated() && gate.Session().IsAuthenticated {
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
