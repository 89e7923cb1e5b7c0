// Package router serves the client's pages over HTTP. GET renders a page's
// view-model as JSON; POST drives the page's actions.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xNORAGAMIx/udhaari/internal/middleware"
	"github.com/xNORAGAMIx/udhaari/internal/state"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

// Backend is every backend call the pages make. *api.Client implements it.
type Backend interface {
	views.GroupAPI
	views.GroupsAPI
	views.ProfileAPI
	views.AuthAPI
}

// Options configures the route table.
type Options struct {
	API   Backend
	Store *state.Store

	// PageSize is the group list page size.
	PageSize int

	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// pages holds one view-model per page, like a single browser tab would.
type pages struct {
	opts Options

	mu       sync.Mutex
	groups   *views.GroupList
	profile  *views.Profile
	details  map[string]*views.GroupDetail
	login    *views.Login
	register *views.Register
	reset    *views.PasswordReset
}

func newPages(opts Options) *pages {
	p := &pages{
		opts:     opts,
		login:    views.NewLogin(opts.API, opts.Store),
		register: views.NewRegister(opts.API),
		reset:    views.NewPasswordReset(opts.API),
	}
	p.resetUserPages()
	return p
}

// resetUserPages drops page state that belongs to the signed-in user.
func (p *pages) resetUserPages() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups = views.NewGroupList(p.opts.API, p.opts.Store, p.opts.PageSize)
	p.profile = views.NewProfile(p.opts.API)
	p.details = make(map[string]*views.GroupDetail)
}

func (p *pages) groupList() *views.GroupList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groups
}

func (p *pages) profilePage() *views.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

func (p *pages) groupDetail(groupID string) *views.GroupDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.details[groupID]
	if !ok {
		g = views.NewGroupDetail(p.opts.API, p.opts.Store, groupID)
		p.details[groupID] = g
	}
	return g
}

// New builds the route table.
func New(opts Options) http.Handler {
	if opts.PageSize < 1 {
		opts.PageSize = views.DefaultPageSize
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	p := newPages(opts)
	opts.Store.Subscribe(func(c state.Change) {
		if c.Kind == state.ChangeLogin || c.Kind == state.ChangeLogout {
			p.resetUserPages()
		}
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/", p.home)
	r.Get("/features", p.features)
	r.Post("/logout", p.logout)

	r.Get("/otp", p.otpPage)
	r.Post("/otp/send", p.otpSend)
	r.Post("/otp/reset", p.otpReset)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectIfAuthenticated(opts.Store, "/"))
		r.Get("/login", p.loginPage)
		r.Post("/login", p.loginSubmit)
		r.Get("/register", p.registerPage)
		r.Post("/register", p.registerSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(opts.Store))

		r.Get("/groups", p.groupsPage)
		r.Post("/groups", p.groupsCreate)
		r.Post("/groups/{groupId}/delete", p.groupsDelete)

		r.Get("/groups/{groupId}", p.groupPage)
		r.Post("/groups/{groupId}/members", p.groupAddMember)
		r.Post("/groups/{groupId}/expenses", p.groupAddExpense)
		r.Post("/groups/{groupId}/settle", p.groupSettle)

		r.Get("/profile", p.profileView)
		r.Post("/profile/load/{section}", p.profileLoad)
		r.Post("/profile/otp/send", p.profileSendOTP)
		r.Post("/profile/otp/verify", p.profileVerifyOTP)
	})

	r.NotFound(p.notFound)
	return r
}
