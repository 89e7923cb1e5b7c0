package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Expense is a shared expense inside a group.
type Expense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	PaidByEmail string          `json:"paidByEmail,omitempty"`
	PaidByName  string          `json:"paidByName,omitempty"`

	// GroupName is only set by GET /my-expenses.
	GroupName string `json:"groupName,omitempty"`

	CreatedAt Timestamp `json:"createdAt"`
}

// NewExpense is the POST /{groupId}/expenses payload.
type NewExpense struct {
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
	PaidByEmail string `json:"paidByEmail"`
}

// Categories offered by the expense form. The first one is the default.
var Categories = []string{"food", "travel", "shopping", "entertainment", "utilities", "other"}

// Amount marshals a decimal as a bare JSON number, which is what the backend
// binds request amounts to.
type Amount decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}

// Decimal returns the underlying value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}
