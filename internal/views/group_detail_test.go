package views

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// seedSplit makes a group where Asha paid 100 for both, so Bilal owes Asha.
func seedSplit(e *env) string {
	id := e.srv.SeedGroup("Flat", "a@x.com", "b@x.com")
	e.srv.SeedExpense(id, "a@x.com", "Groceries", "100", "food")
	return id
}

func TestCanSettle(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"creditor cannot settle", "a@x.com", false},
		{"debtor can settle", "b@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			id := seedSplit(e)
			e.loginAs(tt.email)

			g := NewGroupDetail(e.client, e.store, id)
			assert.False(t, g.CanSettle(), "nothing loaded yet")

			require.NoError(t, g.Load(context.Background()))
			balances := g.Balances()
			require.Len(t, balances, 1)
			assert.Equal(t, "Bilal", balances[0].FromUser)
			assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(50)))
			assert.Equal(t, tt.want, g.CanSettle())
		})
	}
}

func TestLoadReplacesAllOrNothing(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	g := NewGroupDetail(e.client, e.store, id)
	require.NoError(t, g.Load(ctx))
	require.Len(t, g.Members(), 2)
	require.Len(t, g.Expenses(), 1)

	e.srv.SeedExpense(id, "b@x.com", "Cab", "40", "travel")
	e.srv.Fail(http.MethodGet, "/"+id+"/balances", http.StatusInternalServerError, "boom")

	err := g.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgLoadGroup, g.Error())
	assert.Len(t, g.Expenses(), 1, "expenses must not be replaced when a sibling read fails")
	assert.Len(t, g.Balances(), 1)
}

func TestDefaultPayer(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	g := NewGroupDetail(e.client, e.store, id)
	require.NoError(t, g.Load(ctx))
	assert.Equal(t, "a@x.com", g.ExpenseDraft().PaidByEmail)
	assert.Equal(t, DefaultCategory, g.ExpenseDraft().Category)

	g.SetExpenseDraft(ExpenseDraft{Description: "x", PaidByEmail: "b@x.com"})
	require.NoError(t, g.Load(ctx))
	assert.Equal(t, "b@x.com", g.ExpenseDraft().PaidByEmail, "re-fetch must not overwrite a chosen payer")
}

func TestAddExpenseValidation(t *testing.T) {
	tests := []struct {
		name  string
		draft ExpenseDraft
	}{
		{"empty description", ExpenseDraft{Amount: "10", Category: "food", PaidByEmail: "a@x.com"}},
		{"empty amount", ExpenseDraft{Description: "Tea", Category: "food", PaidByEmail: "a@x.com"}},
		{"zero amount", ExpenseDraft{Description: "Tea", Amount: "0", Category: "food", PaidByEmail: "a@x.com"}},
		{"garbage amount", ExpenseDraft{Description: "Tea", Amount: "ten", Category: "food", PaidByEmail: "a@x.com"}},
		{"empty category", ExpenseDraft{Description: "Tea", Amount: "10", PaidByEmail: "a@x.com"}},
		{"empty payer", ExpenseDraft{Description: "Tea", Amount: "10", Category: "food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			id := seedSplit(e)
			e.loginAs("a@x.com")

			g := NewGroupDetail(e.client, e.store, id)
			g.SetExpenseDraft(tt.draft)
			e.srv.ResetRequests()

			err := g.AddExpense(context.Background())
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, MsgExpenseRequired, g.Error())
			assert.Empty(t, e.srv.Requests(), "validation failures must not reach the network")
		})
	}
}

// peekAPI runs a hook right after a successful AddExpense call, before the
// view re-fetches.
type peekAPI struct {
	GroupAPI
	afterAdd func()
}

func (p peekAPI) AddExpense(ctx context.Context, groupID string, exp models.NewExpense) error {
	if err := p.GroupAPI.AddExpense(ctx, groupID, exp); err != nil {
		return err
	}
	p.afterAdd()
	return nil
}

func TestAddExpenseVisibleOnlyAfterRefetch(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	var g *GroupDetail
	var duringPost []models.Expense
	g = NewGroupDetail(peekAPI{GroupAPI: e.client, afterAdd: func() { duringPost = g.Expenses() }}, e.store, id)
	require.NoError(t, g.Load(ctx))

	g.SetExpenseDraft(ExpenseDraft{Description: "Pizza", Amount: "50.5", Category: "food", PaidByEmail: "b@x.com"})
	e.srv.ResetRequests()
	require.NoError(t, g.AddExpense(ctx))

	assert.Len(t, duringPost, 1, "new expense must not be shown before the re-fetch")
	require.Len(t, g.Expenses(), 2)
	assert.Equal(t, "Pizza", g.Expenses()[1].Description)
	assert.True(t, g.TotalExpenses().Equal(decimal.RequireFromString("150.5")))
	assert.Empty(t, g.Error())

	reqs := e.srv.Requests()
	post := slices.Index(reqs, "POST /"+id+"/expenses")
	require.Equal(t, 0, post)
	for _, get := range []string{"/members", "/expenses", "/balances"} {
		assert.Greater(t, slices.Index(reqs, "GET /"+id+get), post, "GET %s should follow the POST", get)
	}

	d := g.ExpenseDraft()
	assert.Empty(t, d.Description)
	assert.Empty(t, d.Amount)
	assert.Equal(t, DefaultCategory, d.Category)
	assert.Equal(t, "a@x.com", d.PaidByEmail)
}

func TestAddExpenseFailure(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")

	g := NewGroupDetail(e.client, e.store, id)
	g.SetExpenseDraft(ExpenseDraft{Description: "Tea", Amount: "10", Category: "food", PaidByEmail: "a@x.com"})
	e.srv.Fail(http.MethodPost, "/"+id+"/expenses", http.StatusInternalServerError, "")

	require.Error(t, g.AddExpense(context.Background()))
	assert.Equal(t, MsgAddExpenseFail, g.Error())
	assert.Equal(t, "Tea", g.ExpenseDraft().Description, "draft survives a failed request")
}

func TestAddMember(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Chitra", "c@x.com", "pw")
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	g := NewGroupDetail(e.client, e.store, id)

	e.srv.ResetRequests()
	assert.ErrorIs(t, g.AddMember(ctx), ErrValidation)
	assert.Equal(t, MsgMemberRequired, g.Error())
	assert.Empty(t, e.srv.Requests())

	g.SetMemberDraft("nobody@x.com")
	require.Error(t, g.AddMember(ctx))
	assert.Equal(t, MsgAddMemberFailed, g.Error())

	g.SetMemberDraft("c@x.com")
	require.NoError(t, g.AddMember(ctx))
	assert.Empty(t, g.Error())
	assert.Empty(t, g.MemberDraft())
	assert.Len(t, g.Members(), 3)
}

func TestSettle(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	ctx := context.Background()

	t.Run("creditor is refused", func(t *testing.T) {
		e.loginAs("a@x.com")
		g := NewGroupDetail(e.client, e.store, id)
		require.NoError(t, g.Load(ctx))
		g.SetSettleDraft(SettleDraft{ToEmail: "b@x.com", Amount: "10"})
		e.srv.ResetRequests()

		assert.ErrorIs(t, g.Settle(ctx), ErrSettleNotAllowed)
		assert.Zero(t, e.srv.Count(http.MethodPost, "/"+id+"/settle"))
	})

	t.Run("missing fields", func(t *testing.T) {
		e.loginAs("b@x.com")
		g := NewGroupDetail(e.client, e.store, id)
		require.NoError(t, g.Load(ctx))
		g.SetSettleDraft(SettleDraft{Amount: "10"})

		assert.ErrorIs(t, g.Settle(ctx), ErrValidation)
		assert.Equal(t, MsgSettleRequired, g.Error())
	})

	t.Run("debtor settles in full", func(t *testing.T) {
		e.loginAs("b@x.com")
		g := NewGroupDetail(e.client, e.store, id)
		require.NoError(t, g.Load(ctx))

		candidates := g.SettleCandidates()
		require.Len(t, candidates, 1)
		assert.Equal(t, "a@x.com", candidates[0].Email)

		g.SetSettleDraft(SettleDraft{ToEmail: "a@x.com", Amount: "50"})
		require.NoError(t, g.Settle(ctx))
		assert.Empty(t, g.Balances())
		assert.False(t, g.CanSettle())
		assert.Equal(t, SettleDraft{}, g.SettleDraft())
	})
}

// blockingAPI holds AddMember until released.
type blockingAPI struct {
	GroupAPI
	entered chan struct{}
	release chan struct{}
}

func (b blockingAPI) AddMember(ctx context.Context, groupID, email string) error {
	close(b.entered)
	<-b.release
	return b.GroupAPI.AddMember(ctx, groupID, email)
}

func TestMutationsAreExclusive(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Chitra", "c@x.com", "pw")
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	b := blockingAPI{GroupAPI: e.client, entered: make(chan struct{}), release: make(chan struct{})}
	g := NewGroupDetail(b, e.store, id)
	g.SetMemberDraft("c@x.com")

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = g.AddMember(ctx)
	}()
	<-b.entered

	g.SetExpenseDraft(ExpenseDraft{Description: "Tea", Amount: "10", Category: "food", PaidByEmail: "a@x.com"})
	assert.ErrorIs(t, g.AddExpense(ctx), ErrBusy)

	close(b.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Zero(t, e.srv.Count(http.MethodPost, "/"+id+"/expenses"))
}

// slowFirstExpenses holds the response of the first Expenses call until
// released; later calls go straight through.
type slowFirstExpenses struct {
	GroupAPI
	started atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *slowFirstExpenses) Expenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	expenses, err := s.GroupAPI.Expenses(ctx, groupID)
	if s.started.CompareAndSwap(false, true) {
		close(s.entered)
		<-s.release
	}
	return expenses, err
}

func TestOverlappingLoadsKeepNewest(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	slow := &slowFirstExpenses{GroupAPI: e.client, entered: make(chan struct{}), release: make(chan struct{})}
	g := NewGroupDetail(slow, e.store, id)

	older := make(chan error, 1)
	go func() { older <- g.Load(ctx) }()
	<-slow.entered

	e.srv.SeedExpense(id, "b@x.com", "Tea", "40", "food")
	require.NoError(t, g.Load(ctx))
	require.Len(t, g.Expenses(), 2)

	close(slow.release)
	require.NoError(t, <-older)
	assert.Len(t, g.Expenses(), 2, "the older load resolved last and must not win")
}

func TestGroupDetailModel(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("b@x.com")

	g := NewGroupDetail(e.client, e.store, id)
	require.NoError(t, g.Load(context.Background()))

	m := g.Model()
	assert.Equal(t, id, m.GroupID)
	assert.True(t, m.Loaded)
	assert.True(t, m.CanSettle)
	assert.True(t, m.TotalExpenses.Equal(decimal.NewFromInt(100)))
	assert.Len(t, m.SettleCandidates, 1)
	assert.Equal(t, models.Categories, m.Categories)
}
