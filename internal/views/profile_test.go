package views

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileSectionsLoadOnDemand(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	e.loginAs("a@x.com")
	ctx := context.Background()

	p := NewProfile(e.client)
	m := p.Model()
	assert.Nil(t, m.Profile)
	assert.Nil(t, m.Expenses)
	assert.Nil(t, m.Summary)

	require.NoError(t, p.Load(ctx))
	assert.Equal(t, []string{"GET /profile"}, e.srv.Requests())
	acct, ok := p.Account()
	require.True(t, ok)
	assert.Equal(t, "Asha", acct.Name)

	e.srv.ResetRequests()
	require.NoError(t, p.LoadExpenses(ctx))
	assert.Equal(t, []string{"GET /my-expenses"}, e.srv.Requests())
	require.Len(t, p.Expenses(), 1)
	assert.Equal(t, "Flat", p.Expenses()[0].GroupName)

	require.NoError(t, p.LoadSpendSummary(ctx))
	m = p.Model()
	require.NotNil(t, m.Summary)
	assert.Equal(t, "50", m.Summary.TotalActualSpent.String())
	require.Len(t, m.Summary.GroupWise, 1)
	assert.Equal(t, "Flat", m.Summary.GroupWise[0].Group)
	assert.Nil(t, m.SentSettlements, "sent settlements were never requested")

	e.loginAs("b@x.com")
	bp := NewProfile(e.client)
	e.srv.SeedExpense(id, "b@x.com", "Cab", "20", "travel")
	require.NoError(t, bp.LoadSpendSummary(ctx))
	summary, ok := bp.SpendSummary()
	require.True(t, ok)
	assert.Equal(t, "50", summary.GroupWise[0].TotalOwed.String())
}

func TestProfileSettlements(t *testing.T) {
	e := newEnv(t)
	id := seedSplit(e)
	ctx := context.Background()

	e.loginAs("b@x.com")
	g := NewGroupDetail(e.client, e.store, id)
	require.NoError(t, g.Load(ctx))
	g.SetSettleDraft(SettleDraft{ToEmail: "a@x.com", Amount: "30"})
	require.NoError(t, g.Settle(ctx))

	bp := NewProfile(e.client)
	require.NoError(t, bp.LoadSentSettlements(ctx))
	require.Len(t, bp.SentSettlements(), 1)
	assert.Equal(t, "Asha", bp.SentSettlements()[0].ToName)

	e.loginAs("a@x.com")
	ap := NewProfile(e.client)
	require.NoError(t, ap.LoadReceivedSettlements(ctx))
	require.Len(t, ap.ReceivedSettlements(), 1)
	assert.Equal(t, "30", ap.ReceivedSettlements()[0].Amount.String())
}

func TestProfileLoadFailureIsSilent(t *testing.T) {
	e := newEnv(t)
	e.loginAs("a@x.com")
	e.srv.Fail(http.MethodGet, "/my-settlements", http.StatusInternalServerError, "")

	p := NewProfile(e.client)
	require.Error(t, p.LoadSentSettlements(context.Background()))
	assert.Nil(t, p.Model().SentSettlements)
}

func TestVerificationOTP(t *testing.T) {
	e := newEnv(t)
	e.loginAs("a@x.com")
	ctx := context.Background()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProfile(e.client)
	p.throttle.now = clock.Now
	require.NoError(t, p.Load(ctx))

	require.NoError(t, p.SendVerificationOTP(ctx))
	assert.ErrorIs(t, p.SendVerificationOTP(ctx), ErrThrottled)
	assert.Equal(t, 1, e.srv.Count(http.MethodPost, "/send-otp"))
	assert.Equal(t, ResendInterval, p.ResendIn())

	clock.Advance(ResendInterval)
	assert.Zero(t, p.ResendIn())
	require.NoError(t, p.SendVerificationOTP(ctx))
	assert.Equal(t, 2, e.srv.Count(http.MethodPost, "/send-otp"))

	require.Error(t, p.VerifyOTP(ctx, "000000x"))
	acct, _ := p.Account()
	assert.False(t, acct.IsAccountVerified)

	e.srv.ResetRequests()
	require.NoError(t, p.VerifyOTP(ctx, e.srv.OTP("a@x.com")))
	acct, _ = p.Account()
	assert.True(t, acct.IsAccountVerified, "verified flag flips locally")
	assert.Zero(t, e.srv.Count(http.MethodGet, "/profile"), "no re-fetch after verification")
	assert.True(t, e.srv.Verified("a@x.com"))
}

func TestFailedSendDoesNotStartTimer(t *testing.T) {
	e := newEnv(t)
	e.loginAs("a@x.com")
	ctx := context.Background()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProfile(e.client)
	p.throttle.now = clock.Now

	e.srv.Fail(http.MethodPost, "/send-otp", http.StatusBadGateway, "")
	require.Error(t, p.SendVerificationOTP(ctx))
	assert.Zero(t, p.ResendIn())

	e.srv.Heal()
	clock.Advance(time.Second)
	require.NoError(t, p.SendVerificationOTP(ctx))
}
