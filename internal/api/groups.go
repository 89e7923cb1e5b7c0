package api

import (
	"context"
	"net/http"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// MyGroups lists the groups the current user belongs to.
func (c *Client) MyGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, http.MethodGet, "/my-groups", nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group owned by the current user.
func (c *Client) CreateGroup(ctx context.Context, name string) error {
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.do(ctx, http.MethodPost, "/create-group", nil, body, nil)
}

// DeleteGroup removes a group.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, groupPath(groupID, ""), nil, nil, nil)
}

func (c *Client) Members(ctx context.Context, groupID string) ([]models.Member, error) {
	var members []models.Member
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "/members"), nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember adds the account registered under email to a group.
func (c *Client) AddMember(ctx context.Context, groupID, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, http.MethodPost, groupPath(groupID, "/members"), nil, body, nil)
}

func (c *Client) Expenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "/expenses"), nil, nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// AddExpense records an expense split equally by the backend.
func (c *Client) AddExpense(ctx context.Context, groupID string, expense models.NewExpense) error {
	return c.do(ctx, http.MethodPost, groupPath(groupID, "/expenses"), nil, expense, nil)
}

// Balances returns the backend's netted who-owes-whom list for a group.
func (c *Client) Balances(ctx context.Context, groupID string) ([]models.Balance, error) {
	var balances []models.Balance
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "/balances"), nil, nil, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// Settle records a payment from the current user to req.ToEmail.
func (c *Client) Settle(ctx context.Context, groupID string, req models.SettleRequest) error {
	return c.do(ctx, http.MethodPost, groupPath(groupID, "/settle"), nil, req, nil)
}
