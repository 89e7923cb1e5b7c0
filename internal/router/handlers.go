package router

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

type homeModel struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

func (p *pages) home(w http.ResponseWriter, r *http.Request) {
	s := p.opts.Store.Session()
	writeJSON(w, http.StatusOK, homeModel{Authenticated: s.IsAuthenticated, Email: s.Email})
}

type feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var features = []feature{
	{"Create Groups & Add Members", "Easily create groups for trips, roommates, or any shared expenses. Invite friends and manage everything in one place."},
	{"Add & Track Expenses", "Add expenses as they happen and split them among group members. Keep track of who paid what, effortlessly."},
	{"Settle Up with One Click", "View clear summaries of what you owe or are owed. Settle balances securely through simple, direct payments."},
	{"View Your Spending Insights", "Analyze your spending patterns with group-wise and category-wise breakdowns, powered by insightful charts."},
	{"Secure & Verified Accounts", "We ensure your data is safe with OTP-based verification and encrypted access, keeping your finances private."},
}

func (p *pages) features(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"features": features})
}

func (p *pages) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   "Page Not Found",
		"path":    r.URL.Path,
		"message": "The page you're looking for doesn't exist or has been moved.",
	})
}

func (p *pages) logout(w http.ResponseWriter, r *http.Request) {
	// Logout resets the group cache in the same transition.
	p.opts.Store.Logout()
	seeOther(w, r, "/login")
}

type formModel struct {
	Error string `json:"error,omitempty"`
}

func (p *pages) loginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formModel{Error: p.login.Error()})
}

func (p *pages) loginSubmit(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	if err := p.login.Submit(r.Context(), in["email"], in["password"], in.checked("remember")); err != nil {
		writeJSON(w, actionStatus(err), formModel{Error: p.login.Error()})
		return
	}
	seeOther(w, r, "/")
}

func (p *pages) registerPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formModel{Error: p.register.Error()})
}

func (p *pages) registerSubmit(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	reg := models.Registration{Name: in["name"], Email: in["email"], Password: in["password"]}
	if err := p.register.Submit(r.Context(), reg); err != nil {
		writeJSON(w, actionStatus(err), formModel{Error: p.register.Error()})
		return
	}
	seeOther(w, r, "/login")
}

type otpModel struct {
	Notice          views.Notice `json:"notice"`
	ResendInSeconds int          `json:"resendInSeconds"`
}

func (p *pages) otpModel() otpModel {
	return otpModel{
		Notice:          p.reset.Notice(),
		ResendInSeconds: int(p.reset.ResendIn().Seconds() + 0.5),
	}
}

func (p *pages) otpPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.otpModel())
}

func (p *pages) otpSend(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	err := p.reset.SendOTP(r.Context(), in["email"])
	writeJSON(w, actionStatus(err), p.otpModel())
}

func (p *pages) otpReset(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	if err := p.reset.Reset(r.Context(), in["email"], in["otp"], in["password"]); err != nil {
		writeJSON(w, actionStatus(err), p.otpModel())
		return
	}
	seeOther(w, r, "/login")
}

func (p *pages) groupsPage(w http.ResponseWriter, r *http.Request) {
	l := p.groupList()
	// Failures are part of the model.
	_ = l.Load(r.Context())
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		l.SetPage(page)
	}
	writeJSON(w, http.StatusOK, l.Model())
}

func (p *pages) groupsCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	l := p.groupList()
	err := l.Create(r.Context(), in["name"])
	writeJSON(w, actionStatus(err), l.Model())
}

func (p *pages) groupsDelete(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	confirmed := in.checked("confirm")

	l := p.groupList()
	_, err := l.Delete(r.Context(), chi.URLParam(r, "groupId"), func(models.Group) bool { return confirmed })
	writeJSON(w, actionStatus(err), l.Model())
}

func (p *pages) groupPage(w http.ResponseWriter, r *http.Request) {
	g := p.groupDetail(chi.URLParam(r, "groupId"))
	_ = g.Load(r.Context())
	writeJSON(w, http.StatusOK, g.Model())
}

func (p *pages) groupAddMember(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	g := p.groupDetail(chi.URLParam(r, "groupId"))
	g.SetMemberDraft(in["email"])
	err := g.AddMember(r.Context())
	writeJSON(w, actionStatus(err), g.Model())
}

func (p *pages) groupAddExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	g := p.groupDetail(chi.URLParam(r, "groupId"))

	d := views.ExpenseDraft{
		Description: in["description"],
		Amount:      in["amount"],
		Category:    in["category"],
		PaidByEmail: in["paidByEmail"],
	}
	if _, ok := in["category"]; !ok {
		d.Category = g.ExpenseDraft().Category
	}
	if _, ok := in["paidByEmail"]; !ok {
		d.PaidByEmail = g.ExpenseDraft().PaidByEmail
	}
	g.SetExpenseDraft(d)

	err := g.AddExpense(r.Context())
	writeJSON(w, actionStatus(err), g.Model())
}

func (p *pages) groupSettle(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	g := p.groupDetail(chi.URLParam(r, "groupId"))
	g.SetSettleDraft(views.SettleDraft{ToEmail: in["toEmail"], Amount: in["amount"]})
	err := g.Settle(r.Context())
	writeJSON(w, actionStatus(err), g.Model())
}

func (p *pages) profileView(w http.ResponseWriter, r *http.Request) {
	prof := p.profilePage()
	_ = prof.Load(r.Context())
	writeJSON(w, http.StatusOK, prof.Model())
}

func (p *pages) profileLoad(w http.ResponseWriter, r *http.Request) {
	prof := p.profilePage()

	var err error
	switch chi.URLParam(r, "section") {
	case "expenses":
		err = prof.LoadExpenses(r.Context())
	case "settlements":
		err = prof.LoadSentSettlements(r.Context())
	case "received":
		err = prof.LoadReceivedSettlements(r.Context())
	case "summary":
		err = prof.LoadSpendSummary(r.Context())
	default:
		p.notFound(w, r)
		return
	}
	writeJSON(w, actionStatus(err), prof.Model())
}

func (p *pages) profileSendOTP(w http.ResponseWriter, r *http.Request) {
	prof := p.profilePage()
	err := prof.SendVerificationOTP(r.Context())
	writeJSON(w, actionStatus(err), prof.Model())
}

func (p *pages) profileVerifyOTP(w http.ResponseWriter, r *http.Request) {
	in, ok := bind(w, r)
	if !ok {
		return
	}
	prof := p.profilePage()
	err := prof.VerifyOTP(r.Context(), in["otp"])
	writeJSON(w, actionStatus(err), prof.Model())
}
