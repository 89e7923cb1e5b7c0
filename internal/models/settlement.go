package models

import "github.com/shopspring/decimal"

// Balance is the server's netted projection: FromUser owes ToUser Amount.
// Names, not emails, identify the parties.
type Balance struct {
	FromUser string          `json:"fromUser"`
	ToUser   string          `json:"toUser"`
	Amount   decimal.Decimal `json:"amount"`
}

// Settlement is a recorded payment. GET /my-settlements fills the To* side,
// GET /received-settlements the From* side.
type Settlement struct {
	ToEmail   string          `json:"toEmail,omitempty"`
	ToName    string          `json:"toName,omitempty"`
	FromEmail string          `json:"fromEmail,omitempty"`
	FromName  string          `json:"fromName,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	SettledAt Timestamp       `json:"settledAt"`
}

// SettleRequest is the POST /{groupId}/settle payload.
type SettleRequest struct {
	ToEmail string `json:"toEmail"`
	Amount  Amount `json:"amount"`
}
