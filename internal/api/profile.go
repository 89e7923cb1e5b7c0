package api

import (
	"context"
	"net/http"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// MyExpenses lists expenses the current user paid across all groups.
func (c *Client) MyExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.do(ctx, http.MethodGet, "/my-expenses", nil, nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// MySettlements lists settlements the current user sent.
func (c *Client) MySettlements(ctx context.Context) ([]models.Settlement, error) {
	var out []models.Settlement
	if err := c.do(ctx, http.MethodGet, "/my-settlements", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReceivedSettlements lists settlements paid to the current user.
func (c *Client) ReceivedSettlements(ctx context.Context) ([]models.Settlement, error) {
	var out []models.Settlement
	if err := c.do(ctx, http.MethodGet, "/received-settlements", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SpendSummary(ctx context.Context) (models.SpendSummary, error) {
	var s models.SpendSummary
	err := c.do(ctx, http.MethodGet, "/spent-summary", nil, nil, &s)
	return s, err
}
