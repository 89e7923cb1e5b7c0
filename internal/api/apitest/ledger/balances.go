package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Bill is an expense reduced to what balance netting needs.
type Bill struct {
	Payer        string
	Amount       decimal.Decimal
	Participants []string
}

// Transfer is a recorded settlement payment.
type Transfer struct {
	From   string // debtor settling up
	To     string // creditor being paid
	Amount decimal.Decimal
}

// MemberBalance is one member's running position.
type MemberBalance struct {
	Member    string
	TotalPaid decimal.Decimal
	TotalOwed decimal.Decimal
	Net       decimal.Decimal // positive = is owed money
}

// DebtEdge is one simplified "From owes To" line.
type DebtEdge struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// GroupBalances aggregates bills and transfers into per-member positions and
// a simplified debt list.
//
// Each bill credits the payer with its amount and debits every participant
// with an equal share. A transfer counts as a payment by From and a receipt by
// To. Debts are then simplified by greedily matching the largest debtor with
// the largest creditor.
func GroupBalances(bills []Bill, transfers []Transfer) ([]MemberBalance, []DebtEdge, error) {
	balances := make(map[string]*MemberBalance)
	get := func(member string) *MemberBalance {
		b, ok := balances[member]
		if !ok {
			b = &MemberBalance{Member: member}
			balances[member] = b
		}
		return b
	}

	for _, bill := range bills {
		// Bills without a payer can't move anyone's balance.
		if bill.Payer == "" {
			continue
		}

		shares, err := EqualSplit(bill.Amount, len(bill.Participants))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to split bill paid by %s: %w", bill.Payer, err)
		}

		payer := get(bill.Payer)
		payer.TotalPaid = payer.TotalPaid.Add(bill.Amount)

		for i, participant := range bill.Participants {
			p := get(participant)
			p.TotalOwed = p.TotalOwed.Add(shares[i])
		}
	}

	for _, t := range transfers {
		from, to := get(t.From), get(t.To)
		from.TotalPaid = from.TotalPaid.Add(t.Amount)
		to.TotalOwed = to.TotalOwed.Add(t.Amount)
	}

	members := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.TotalPaid.Sub(b.TotalOwed)
		members = append(members, *b)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Member < members[j].Member })

	return members, simplify(members), nil
}

type position struct {
	member string
	amount decimal.Decimal
}

func simplify(members []MemberBalance) []DebtEdge {
	var debtors, creditors []position
	for _, m := range members {
		switch m.Net.Sign() {
		case -1:
			debtors = append(debtors, position{m.Member, m.Net.Neg()})
		case 1:
			creditors = append(creditors, position{m.Member, m.Net})
		}
	}
	byAmount := func(p []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := p[i].amount.Cmp(p[j].amount); c != 0 {
				return c > 0
			}
			return p[i].member < p[j].member
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{From: d.member, To: c.member, Amount: amount})
		}

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)
		if !d.amount.IsPositive() {
			i++
		}
		if !c.amount.IsPositive() {
			j++
		}
	}
	return edges
}
