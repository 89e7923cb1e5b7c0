// Package apitest provides an in-memory udhaari backend for tests.
//
// The fake speaks the same REST surface as the real backend, mints real JWTs,
// nets balances server-side and records every request so tests can assert on
// what was (or was not) sent.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xNORAGAMIx/udhaari/internal/auth"
	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// Prefix is the API root the fake mounts its routes under.
const Prefix = "/api/v1"

type user struct {
	name  string
	email string

	// passwordHash is bcrypt, as a real backend stores it.
	passwordHash string
	verified     bool
	otp          string
}

type expense struct {
	models.Expense
	participants []string // emails
}

type settlement struct {
	from, to string // emails
	amount   decimal.Decimal
	at       time.Time
}

type group struct {
	id          string
	name        string
	createdAt   time.Time
	members     []string // emails, in join order
	expenses    []expense
	settlements []settlement
}

type failure struct {
	status  int
	message string
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	issuer *auth.Issuer

	mu       sync.Mutex
	users    map[string]*user
	groups   map[string]*group
	clock    time.Time
	requests []string
	failures map[string]failure
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		issuer:   auth.NewIssuer("apitest-secret", time.Hour),
		users:    make(map[string]*user),
		groups:   make(map[string]*group),
		clock:    time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		failures: make(map[string]failure),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure a client with.
func (s *Server) BaseURL() string {
	return s.URL + Prefix
}

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{name: name, email: email, passwordHash: mustHash(password)}
}

func mustHash(password string) string {
	hash, err := auth.HashPassword(password, auth.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	return hash
}

// Token mints a session token for email without going through /login.
func (s *Server) Token(email string) string {
	token, err := s.issuer.Generate(email, email)
	if err != nil {
		panic(fmt.Sprintf("apitest: mint token: %v", err))
	}
	return token
}

// SeedGroup creates a group with the given member emails and returns its id.
// Every seeded group is one minute newer than the previous one.
func (s *Server) SeedGroup(name string, members ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGroup(name, members)
}

// SeedExpense records an expense split equally across the group's members.
func (s *Server) SeedExpense(groupID, paidBy, description, amount, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[groupID]
	s.addExpense(g, models.NewExpense{
		Description: description,
		Amount:      models.Amount(decimal.RequireFromString(amount)),
		Category:    category,
		PaidByEmail: paidBy,
	})
}

// Fail makes every request to method and path (relative to Prefix) answer
// with status until Heal is called.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Heal removes every injected failure.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// Requests returns the "METHOD path" log of requests received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count reports how many times method and path were requested.
func (s *Server) Count(method, path string) int {
	key := method + " " + path
	n := 0
	for _, r := range s.Requests() {
		if r == key {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// OTP returns the last code emailed to email.
func (s *Server) OTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.otp
	}
	return ""
}

// Verified reports whether email has confirmed its account.
func (s *Server) Verified(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return ok && u.verified
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/send-reset-otp", s.handleSendResetOTP)
		r.Post("/reset-password", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/profile", s.handleProfile)
			r.Post("/send-otp", s.handleSendOTP)
			r.Post("/verify-otp", s.handleVerifyOTP)

			r.Get("/my-groups", s.handleMyGroups)
			r.Post("/create-group", s.handleCreateGroup)
			r.Get("/my-expenses", s.handleMyExpenses)
			r.Get("/my-settlements", s.handleMySettlements)
			r.Get("/received-settlements", s.handleReceivedSettlements)
			r.Get("/spent-summary", s.handleSpendSummary)

			r.Delete("/{groupId}", s.handleDeleteGroup)
			r.Get("/{groupId}/members", s.handleMembers)
			r.Post("/{groupId}/members", s.handleAddMember)
			r.Get("/{groupId}/expenses", s.handleExpenses)
			r.Post("/{groupId}/expenses", s.handleAddExpense)
			r.Get("/{groupId}/balances", s.handleBalances)
			r.Post("/{groupId}/settle", s.handleSettle)
		})
	})
	return r
}

// record logs the request and answers injected failures before routing.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, Prefix)

		s.mu.Lock()
		s.requests = append(s.requests, key)
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		claims, err := s.issuer.Validate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token expired or invalid")
			return
		}
		s.mu.Lock()
		_, known := s.users[claims.Email]
		s.mu.Unlock()
		if !known {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Email)))
	})
}

func currentEmail(r *http.Request) string {
	email, _ := r.Context().Value(ctxKey{}).(string)
	return email
}

func newOTP() string {
	return fmt.Sprintf("%06d", rand.IntN(1_000_000))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// createGroup must be called with mu held.
func (s *Server) createGroup(name string, members []string) string {
	s.clock = s.clock.Add(time.Minute)
	g := &group{
		id:        uuid.NewString(),
		name:      name,
		createdAt: s.clock,
		members:   append([]string(nil), members...),
	}
	s.groups[g.id] = g
	return g.id
}
