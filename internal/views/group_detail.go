package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xNORAGAMIx/udhaari/internal/calculator"
	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// DefaultCategory preselects the expense form.
const DefaultCategory = "food"

// ExpenseDraft is the add-expense form as typed.
type ExpenseDraft struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	PaidByEmail string `json:"paidByEmail"`
}

// SettleDraft is the settle-up form as typed.
type SettleDraft struct {
	ToEmail string `json:"toEmail"`
	Amount  string `json:"amount"`
}

// GroupDetail is the view-model of one group's page. The displayed members,
// expenses and balances always come from one successful joint fetch.
type GroupDetail struct {
	api     GroupAPI
	session SessionReader
	groupID string

	mu       sync.Mutex
	members  []models.Member
	expenses []models.Expense
	balances []models.Balance
	loaded   bool
	errMsg   string
	busy     bool
	loadSeq  uint64

	memberDraft  string
	expenseDraft ExpenseDraft
	settleDraft  SettleDraft
}

func NewGroupDetail(api GroupAPI, session SessionReader, groupID string) *GroupDetail {
	return &GroupDetail{
		api:          api,
		session:      session,
		groupID:      groupID,
		members:      []models.Member{},
		expenses:     []models.Expense{},
		balances:     []models.Balance{},
		expenseDraft: ExpenseDraft{Category: DefaultCategory},
	}
}

func (g *GroupDetail) GroupID() string {
	return g.groupID
}

// Load fetches members, expenses and balances concurrently. Either all three
// replace what is shown, or nothing changes and the load error is shown.
// When loads overlap only the most recently started one is applied.
func (g *GroupDetail) Load(ctx context.Context) error {
	g.mu.Lock()
	g.loadSeq++
	seq := g.loadSeq
	g.mu.Unlock()

	var (
		members  []models.Member
		expenses []models.Expense
		balances []models.Balance
	)

	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		members, err = g.api.Members(ectx, g.groupID)
		return err
	})
	eg.Go(func() error {
		var err error
		expenses, err = g.api.Expenses(ectx, g.groupID)
		return err
	})
	eg.Go(func() error {
		var err error
		balances, err = g.api.Balances(ectx, g.groupID)
		return err
	})

	err := eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.loadSeq {
		slog.Debug("Dropped superseded group load", "group_id", g.groupID, "seq", seq)
		return nil
	}
	if err != nil {
		slog.Warn("Failed to load group", "group_id", g.groupID, "error", err)
		g.errMsg = MsgLoadGroup
		return fmt.Errorf("load group %s: %w", g.groupID, err)
	}

	g.members = nonNil(members)
	g.expenses = nonNil(expenses)
	g.balances = nonNil(balances)
	g.loaded = true

	// A payer already picked survives re-fetches.
	if g.expenseDraft.PaidByEmail == "" && len(g.members) > 0 {
		g.expenseDraft.PaidByEmail = g.members[0].Email
	}
	return nil
}

func (g *GroupDetail) SetMemberDraft(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.memberDraft = email
}

func (g *GroupDetail) SetExpenseDraft(d ExpenseDraft) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expenseDraft = d
}

func (g *GroupDetail) SetSettleDraft(d SettleDraft) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settleDraft = d
}

// AddMember adds the drafted email to the group and re-fetches.
func (g *GroupDetail) AddMember(ctx context.Context) error {
	if !g.begin() {
		return ErrBusy
	}
	defer g.end()

	g.mu.Lock()
	email := strings.TrimSpace(g.memberDraft)
	if email == "" {
		g.errMsg = MsgMemberRequired
		g.mu.Unlock()
		return invalid(MsgMemberRequired)
	}
	g.mu.Unlock()

	if err := g.api.AddMember(ctx, g.groupID, email); err != nil {
		slog.Warn("Failed to add member", "group_id", g.groupID, "email", email, "error", err)
		g.fail(MsgAddMemberFailed)
		return fmt.Errorf("add member: %w", err)
	}
	slog.Info("Member added", "group_id", g.groupID, "email", email)

	g.mu.Lock()
	g.memberDraft = ""
	g.errMsg = ""
	g.mu.Unlock()

	return g.Load(ctx)
}

// AddExpense records the drafted expense and re-fetches. The new expense is
// only visible once the re-fetch lands.
func (g *GroupDetail) AddExpense(ctx context.Context) error {
	if !g.begin() {
		return ErrBusy
	}
	defer g.end()

	g.mu.Lock()
	d := g.expenseDraft
	g.mu.Unlock()

	amount, ok := parseAmount(d.Amount)
	if strings.TrimSpace(d.Description) == "" || !ok || d.Category == "" || d.PaidByEmail == "" {
		g.fail(MsgExpenseRequired)
		return invalid(MsgExpenseRequired)
	}

	req := models.NewExpense{
		Description: strings.TrimSpace(d.Description),
		Amount:      models.Amount(amount),
		Category:    d.Category,
		PaidByEmail: d.PaidByEmail,
	}
	if err := g.api.AddExpense(ctx, g.groupID, req); err != nil {
		slog.Warn("Failed to add expense", "group_id", g.groupID, "error", err)
		g.fail(MsgAddExpenseFail)
		return fmt.Errorf("add expense: %w", err)
	}
	slog.Info("Expense added", "group_id", g.groupID, "amount", amount.String(), "category", d.Category)

	g.mu.Lock()
	payer := ""
	if len(g.members) > 0 {
		payer = g.members[0].Email
	}
	g.expenseDraft = ExpenseDraft{Category: DefaultCategory, PaidByEmail: payer}
	g.errMsg = ""
	g.mu.Unlock()

	return g.Load(ctx)
}

// Settle pays the drafted amount to the drafted member and re-fetches.
func (g *GroupDetail) Settle(ctx context.Context) error {
	if !g.begin() {
		return ErrBusy
	}
	defer g.end()

	g.mu.Lock()
	d := g.settleDraft
	g.mu.Unlock()

	amount, ok := parseAmount(d.Amount)
	if d.ToEmail == "" || !ok {
		g.fail(MsgSettleRequired)
		return invalid(MsgSettleRequired)
	}
	if !g.CanSettle() {
		g.fail(MsgSettleNotOwed)
		return ErrSettleNotAllowed
	}

	req := models.SettleRequest{ToEmail: d.ToEmail, Amount: models.Amount(amount)}
	if err := g.api.Settle(ctx, g.groupID, req); err != nil {
		slog.Warn("Failed to settle", "group_id", g.groupID, "to", d.ToEmail, "error", err)
		g.fail(MsgSettleFailed)
		return fmt.Errorf("settle: %w", err)
	}
	slog.Info("Balance settled", "group_id", g.groupID, "to", d.ToEmail, "amount", amount.String())

	g.mu.Lock()
	g.settleDraft = SettleDraft{}
	g.errMsg = ""
	g.mu.Unlock()

	return g.Load(ctx)
}

// CanSettle reports whether the current user appears as a debtor. Balances
// name people, so the user's name is found through the member list.
func (g *GroupDetail) CanSettle() bool {
	email := g.session.Session().Email

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSettleLocked(email)
}

func (g *GroupDetail) canSettleLocked(email string) bool {
	if !g.loaded || email == "" {
		return false
	}
	for _, m := range g.members {
		if m.Email != email {
			continue
		}
		for _, b := range g.balances {
			if b.FromUser == m.Name {
				return true
			}
		}
	}
	return false
}

func (g *GroupDetail) TotalExpenses() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return calculator.TotalExpenses(g.expenses)
}

// SettleCandidates lists the members the current user could pay.
func (g *GroupDetail) SettleCandidates() []models.Member {
	email := g.session.Session().Email

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.candidatesLocked(email)
}

func (g *GroupDetail) candidatesLocked(email string) []models.Member {
	out := []models.Member{}
	for _, m := range g.members {
		if m.Email != email {
			out = append(out, m)
		}
	}
	return out
}

func (g *GroupDetail) Members() []models.Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Member{}, g.members...)
}

func (g *GroupDetail) Expenses() []models.Expense {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Expense{}, g.expenses...)
}

func (g *GroupDetail) Balances() []models.Balance {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Balance{}, g.balances...)
}

func (g *GroupDetail) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// Error is the message to show for the last failed action, or "".
func (g *GroupDetail) Error() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg
}

func (g *GroupDetail) ExpenseDraft() ExpenseDraft {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expenseDraft
}

func (g *GroupDetail) SettleDraft() SettleDraft {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settleDraft
}

func (g *GroupDetail) MemberDraft() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memberDraft
}

// GroupDetailModel is the page as rendered.
type GroupDetailModel struct {
	GroupID          string           `json:"groupId"`
	Loaded           bool             `json:"loaded"`
	Error            string           `json:"error,omitempty"`
	Members          []models.Member  `json:"members"`
	Expenses         []models.Expense `json:"expenses"`
	Balances         []models.Balance `json:"balances"`
	TotalExpenses    decimal.Decimal  `json:"totalExpenses"`
	CanSettle        bool             `json:"canSettle"`
	SettleCandidates []models.Member  `json:"settleCandidates"`
	MemberDraft      string           `json:"memberDraft"`
	ExpenseDraft     ExpenseDraft     `json:"expenseDraft"`
	SettleDraft      SettleDraft      `json:"settleDraft"`
	Categories       []string         `json:"categories"`
}

func (g *GroupDetail) Model() GroupDetailModel {
	email := g.session.Session().Email

	g.mu.Lock()
	defer g.mu.Unlock()
	return GroupDetailModel{
		GroupID:          g.groupID,
		Loaded:           g.loaded,
		Error:            g.errMsg,
		Members:          append([]models.Member{}, g.members...),
		Expenses:         append([]models.Expense{}, g.expenses...),
		Balances:         append([]models.Balance{}, g.balances...),
		TotalExpenses:    calculator.TotalExpenses(g.expenses),
		CanSettle:        g.canSettleLocked(email),
		SettleCandidates: g.candidatesLocked(email),
		MemberDraft:      g.memberDraft,
		ExpenseDraft:     g.expenseDraft,
		SettleDraft:      g.settleDraft,
		Categories:       models.Categories,
	}
}

func (g *GroupDetail) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

func (g *GroupDetail) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
}

func (g *GroupDetail) fail(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errMsg = msg
}

// parseAmount accepts a positive decimal as typed into a form.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
