// Package ledger is the fake backend's bookkeeping: equal splits and netted
// group balances, the way the real backend computes them. Amounts are
// decimals rounded to paise.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// EqualSplit divides total into n shares that sum exactly to total rounded to
// two places. Leftover paise go to the first shares, one each.
func EqualSplit(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, ErrNoParticipants
	}
	if total.IsNegative() {
		return nil, ErrNegativeAmount
	}

	paise := total.Round(2).Shift(2).IntPart()
	base := paise / int64(n)
	rem := paise % int64(n)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		p := base
		if int64(i) < rem {
			p++
		}
		shares[i] = decimal.New(p, -2)
	}
	return shares, nil
}
