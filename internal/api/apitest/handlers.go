package apitest

import (
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xNORAGAMIx/udhaari/internal/api/apitest/ledger"
	"github.com/xNORAGAMIx/udhaari/internal/auth"
	"github.com/xNORAGAMIx/udhaari/internal/models"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decode(w, r, &creds) {
		return
	}

	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || auth.CheckPassword(u.passwordHash, creds.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResult{Email: u.email, Token: s.Token(u.email)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if !decode(w, r, &reg) {
		return
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing details")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[reg.Email]; exists {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	s.users[reg.Email] = &user{name: reg.Name, email: reg.Email, passwordHash: mustHash(reg.Password)}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registered"})
}

func (s *Server) handleSendResetOTP(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.otp = newOTP()
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordReset
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Email]
	if !ok || u.otp == "" || u.otp != req.OTP {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	u.passwordHash = mustHash(req.Password)
	u.otp = ""
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := *s.users[currentEmail(r)]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.Profile{Name: u.name, Email: u.email, IsAccountVerified: u.verified})
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[currentEmail(r)].otp = newOTP()
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OTP string `json:"otp"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[currentEmail(r)]
	if u.otp == "" || u.otp != body.OTP {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	u.verified = true
	u.otp = ""
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account verified"})
}

func (s *Server) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Group{}
	for _, g := range s.groups {
		if slices.Contains(g.members, email) {
			out = append(out, s.groupModel(g))
		}
	}
	// Map order is random; the real backend answers oldest first.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt.Time) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "Group name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.name == body.Name && slices.Contains(g.members, currentEmail(r)) {
			writeError(w, http.StatusConflict, "Group with this name already exists")
			return
		}
	}
	s.createGroup(body.Name, []string{currentEmail(r)})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Group created"})
}

// lookupGroup resolves {groupId} for a member of the group. On failure it
// writes the response and returns nil. Must be called with mu held.
func (s *Server) lookupGroup(w http.ResponseWriter, r *http.Request) *group {
	g, ok := s.groups[chi.URLParam(r, "groupId")]
	if !ok {
		writeError(w, http.StatusNotFound, "Group not found")
		return nil
	}
	if !slices.Contains(g.members, currentEmail(r)) {
		writeError(w, http.StatusForbidden, "Not a member of this group")
		return nil
	}
	return g
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	delete(s.groups, g.id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted"})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.memberModels(g))
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	if _, ok := s.users[body.Email]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if slices.Contains(g.members, body.Email) {
		writeError(w, http.StatusConflict, "User already in group")
		return
	}
	g.members = append(g.members, body.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member added"})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	out := make([]models.Expense, 0, len(g.expenses))
	for _, e := range g.expenses {
		out = append(out, e.Expense)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req models.NewExpense
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	if req.Description == "" || req.Category == "" || !req.Amount.Decimal().IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid expense")
		return
	}
	if !slices.Contains(g.members, req.PaidByEmail) {
		writeError(w, http.StatusBadRequest, "Payer is not a member of this group")
		return
	}
	s.addExpense(g, req)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Expense added"})
}

// addExpense must be called with mu held.
func (s *Server) addExpense(g *group, req models.NewExpense) {
	s.clock = s.clock.Add(time.Second)
	g.expenses = append(g.expenses, expense{
		Expense: models.Expense{
			Description: req.Description,
			Amount:      req.Amount.Decimal(),
			Category:    req.Category,
			PaidByEmail: req.PaidByEmail,
			PaidByName:  s.name(req.PaidByEmail),
			GroupName:   g.name,
			CreatedAt:   models.Timestamp{Time: s.clock},
		},
		participants: append([]string(nil), g.members...),
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}

	_, edges, err := s.netBalances(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]models.Balance, 0, len(edges))
	for _, e := range edges {
		out = append(out, models.Balance{FromUser: s.name(e.From), ToUser: s.name(e.To), Amount: e.Amount})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req models.SettleRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.lookupGroup(w, r)
	if g == nil {
		return
	}
	if !slices.Contains(g.members, req.ToEmail) || req.ToEmail == currentEmail(r) {
		writeError(w, http.StatusBadRequest, "Invalid settlement recipient")
		return
	}
	if !req.Amount.Decimal().IsPositive() {
		writeError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	s.clock = s.clock.Add(time.Second)
	g.settlements = append(g.settlements, settlement{
		from:   currentEmail(r),
		to:     req.ToEmail,
		amount: req.Amount.Decimal(),
		at:     s.clock,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Settled"})
}

func (s *Server) handleMyExpenses(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Expense{}
	for _, g := range s.groups {
		for _, e := range g.expenses {
			if e.PaidByEmail == email {
				out = append(out, e.Expense)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMySettlements(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)
	writeJSON(w, http.StatusOK, s.settlementsWhere(func(st settlement) bool { return st.from == email }))
}

func (s *Server) handleReceivedSettlements(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)
	writeJSON(w, http.StatusOK, s.settlementsWhere(func(st settlement) bool { return st.to == email }))
}

func (s *Server) settlementsWhere(match func(settlement) bool) []models.Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Settlement{}
	for _, g := range s.groups {
		for _, st := range g.settlements {
			if !match(st) {
				continue
			}
			out = append(out, models.Settlement{
				ToEmail:   st.to,
				ToName:    s.name(st.to),
				FromEmail: st.from,
				FromName:  s.name(st.from),
				Amount:    st.amount,
				SettledAt: models.Timestamp{Time: st.at},
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettledAt.After(out[j].SettledAt.Time) })
	return out
}

func (s *Server) handleSpendSummary(w http.ResponseWriter, r *http.Request) {
	email := currentEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := models.SpendSummary{GroupWise: []models.GroupSpend{}, CategoryWise: []models.CategorySpend{}}
	categories := make(map[string]*models.CategorySpend)

	ids := make([]string, 0, len(s.groups))
	for id, g := range s.groups {
		if slices.Contains(g.members, email) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return s.groups[ids[i]].createdAt.Before(s.groups[ids[j]].createdAt) })

	for _, id := range ids {
		g := s.groups[id]
		row := models.GroupSpend{GroupName: g.name}
		for _, e := range g.expenses {
			share := shareOf(e, email)

			c, ok := categories[e.Category]
			if !ok {
				c = &models.CategorySpend{Category: e.Category}
				categories[e.Category] = c
			}
			if e.PaidByEmail == email {
				row.TotalPaid = row.TotalPaid.Add(e.Amount)
				c.TotalPaid = c.TotalPaid.Add(e.Amount)
			}
			row.ActualSpent = row.ActualSpent.Add(share)
			c.ActualSpent = c.ActualSpent.Add(share)
			if e.PaidByEmail != email {
				row.TotalOwed = row.TotalOwed.Add(share)
				c.TotalOwed = c.TotalOwed.Add(share)
			}
		}
		summary.GroupWise = append(summary.GroupWise, row)
		summary.TotalActualSpent = summary.TotalActualSpent.Add(row.ActualSpent)
	}

	for _, c := range categories {
		summary.CategoryWise = append(summary.CategoryWise, *c)
	}
	sort.Slice(summary.CategoryWise, func(i, j int) bool {
		return summary.CategoryWise[i].Category < summary.CategoryWise[j].Category
	})
	writeJSON(w, http.StatusOK, summary)
}

// netBalances must be called with mu held.
func (s *Server) netBalances(g *group) ([]ledger.MemberBalance, []ledger.DebtEdge, error) {
	bills := make([]ledger.Bill, 0, len(g.expenses))
	for _, e := range g.expenses {
		bills = append(bills, ledger.Bill{Payer: e.PaidByEmail, Amount: e.Amount, Participants: e.participants})
	}
	transfers := make([]ledger.Transfer, 0, len(g.settlements))
	for _, st := range g.settlements {
		transfers = append(transfers, ledger.Transfer{From: st.from, To: st.to, Amount: st.amount})
	}
	return ledger.GroupBalances(bills, transfers)
}

func shareOf(e expense, email string) decimal.Decimal {
	i := slices.Index(e.participants, email)
	if i < 0 {
		return decimal.Zero
	}
	shares, err := ledger.EqualSplit(e.Amount, len(e.participants))
	if err != nil {
		return decimal.Zero
	}
	return shares[i]
}

// name must be called with mu held.
func (s *Server) name(email string) string {
	if u, ok := s.users[email]; ok {
		return u.name
	}
	return email
}

// memberModels must be called with mu held.
func (s *Server) memberModels(g *group) []models.Member {
	out := make([]models.Member, 0, len(g.members))
	for _, email := range g.members {
		out = append(out, models.Member{Name: s.name(email), Email: email})
	}
	return out
}

// groupModel must be called with mu held.
func (s *Server) groupModel(g *group) models.Group {
	expenses := make([]models.Expense, 0, len(g.expenses))
	for _, e := range g.expenses {
		expenses = append(expenses, e.Expense)
	}
	return models.Group{
		ID:        g.id,
		Name:      g.name,
		CreatedAt: models.Timestamp{Time: g.createdAt},
		Members:   s.memberModels(g),
		Expenses:  expenses,
	}
}
