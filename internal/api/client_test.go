package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/api/apitest"
	"github.com/xNORAGAMIx/udhaari/internal/models"
)

func newTestClient(t *testing.T, baseURL string, token string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Token:   func() string { return token },
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api/v1"})
	assert.Error(t, err)
}

func TestLoginAndProfile(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "secret")
	ctx := context.Background()

	anon := newTestClient(t, srv.BaseURL(), "")
	res, err := anon.Login(ctx, models.Credentials{Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.Email)
	require.NotEmpty(t, res.Token)

	_, err = anon.Profile(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized), "anonymous profile should be 401, got %v", err)

	c := newTestClient(t, srv.BaseURL(), res.Token)
	p, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.False(t, p.IsAccountVerified)
}

func TestLoginFailureCarriesServerMessage(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "secret")

	c := newTestClient(t, srv.BaseURL(), "")
	_, err := c.Login(context.Background(), models.Credentials{Email: "a@x.com", Password: "nope"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "/login", apiErr.Path)
	assert.Equal(t, "Invalid email or password", Message(err))
}

func TestGroupLifecycle(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "pw")
	srv.AddUser("Bilal", "b@x.com", "pw")
	ctx := context.Background()
	c := newTestClient(t, srv.BaseURL(), srv.Token("a@x.com"))

	require.NoError(t, c.CreateGroup(ctx, "Goa Trip"))
	groups, err := c.MyGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	id := groups[0].ID
	require.NotEmpty(t, id)

	require.NoError(t, c.AddMember(ctx, id, "b@x.com"))
	require.NoError(t, c.AddExpense(ctx, id, models.NewExpense{
		Description: "Hotel",
		Amount:      models.Amount(decimal.RequireFromString("1000")),
		Category:    "travel",
		PaidByEmail: "a@x.com",
	}))

	members, err := c.Members(ctx, id)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	expenses, err := c.Expenses(ctx, id)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Asha", expenses[0].PaidByName)

	balances, err := c.Balances(ctx, id)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "Bilal", balances[0].FromUser)
	assert.Equal(t, "Asha", balances[0].ToUser)
	assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(500)))

	bilal := newTestClient(t, srv.BaseURL(), srv.Token("b@x.com"))
	require.NoError(t, bilal.Settle(ctx, id, models.SettleRequest{
		ToEmail: "a@x.com",
		Amount:  models.Amount(decimal.NewFromInt(500)),
	}))
	balances, err = c.Balances(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, balances)

	received, err := c.ReceivedSettlements(ctx)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "Bilal", received[0].FromName)

	require.NoError(t, c.DeleteGroup(ctx, id))
	groups, err = c.MyGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupIDIsPathEscaped(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("null"))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL+"/api/v1", "")
	members, err := c.Members(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.Equal(t, "/api/v1/a%2Fb%20c/members", gotPath)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "tok-123")
	require.NoError(t, c.CreateGroup(context.Background(), "Flat"))

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get(RequestIDHeader))
}

func TestNoAuthorizationWhenLoggedOut(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, "")
	_, err := c.MyGroups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, got.Get("Content-Type"), "GET without body should not claim a content type")
}

func TestSendResetOTPQuery(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a+1@x.com", "pw")

	c := newTestClient(t, srv.BaseURL(), "")
	require.NoError(t, c.SendResetOTP(context.Background(), "a+1@x.com"))
	assert.Len(t, srv.OTP("a+1@x.com"), 6)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	c, err := New(Options{BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.MyGroups(context.Background())
	assert.Error(t, err)
}

func TestMetricsCountRequests(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Asha", "a@x.com", "pw")

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c, err := New(Options{BaseURL: srv.BaseURL(), Metrics: metrics, Token: func() string { return srv.Token("a@x.com") }})
	require.NoError(t, err)

	_, err = c.MyGroups(context.Background())
	require.NoError(t, err)
	_, err = c.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("get", "200")))
}
