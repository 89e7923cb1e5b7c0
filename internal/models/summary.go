package models

import "github.com/shopspring/decimal"

// SpendSummary is the server-aggregated breakdown from GET /spent-summary.
type SpendSummary struct {
	TotalActualSpent decimal.Decimal `json:"totalActualSpent"`

	GroupWise    []GroupSpend    `json:"groupWise"`
	CategoryWise []CategorySpend `json:"categoryWise"`
}

// GroupSpend is one group's row of the spend summary.
type GroupSpend struct {
	GroupName   string          `json:"groupName"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	TotalOwed   decimal.Decimal `json:"totalOwed"`
	ActualSpent decimal.Decimal `json:"actualSpent"`
}

// CategorySpend is one category's row of the spend summary.
type CategorySpend struct {
	Category    string          `json:"category"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	TotalOwed   decimal.Decimal `json:"totalOwed"`
	ActualSpent decimal.Decimal `json:"actualSpent"`
}
