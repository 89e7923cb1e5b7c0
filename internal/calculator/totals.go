// Package calculator holds the totals and chart series shown on the group and
// profile pages. Balances themselves are always the server's.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

var hundred = decimal.NewFromInt(100)

// TotalExpenses sums the amounts of expenses.
func TotalExpenses(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalOwed sums totalOwed across the group-wise summary rows.
func TotalOwed(rows []models.GroupSpend) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalOwed)
	}
	return total
}

// GroupPoint is one bar group of the group-wise chart.
type GroupPoint struct {
	Group string          `json:"group"`
	Paid  decimal.Decimal `json:"paid"`
	Owed  decimal.Decimal `json:"owed"`
	Spent decimal.Decimal `json:"spent"`
}

// GroupSeries turns the summary's group rows into chart points, in server
// order.
func GroupSeries(s models.SpendSummary) []GroupPoint {
	points := make([]GroupPoint, 0, len(s.GroupWise))
	for _, g := range s.GroupWise {
		points = append(points, GroupPoint{
			Group: g.GroupName,
			Paid:  g.TotalPaid,
			Owed:  g.TotalOwed,
			Spent: g.ActualSpent,
		})
	}
	return points
}

// CategoryPoint is one slice of the category pie.
type CategoryPoint struct {
	Category string          `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	// Percent of all category spend, one decimal place.
	Percent decimal.Decimal `json:"percent"`
}

// CategorySeries turns the summary's category rows into pie slices, largest
// first.
func CategorySeries(s models.SpendSummary) []CategoryPoint {
	total := decimal.Zero
	for _, c := range s.CategoryWise {
		total = total.Add(c.ActualSpent)
	}

	points := make([]CategoryPoint, 0, len(s.CategoryWise))
	for _, c := range s.CategoryWise {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = c.ActualSpent.Mul(hundred).Div(total).Round(1)
		}
		points = append(points, CategoryPoint{
			Category: c.Category,
			Spent:    c.ActualSpent,
			Percent:  pct,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Spent.GreaterThan(points[j].Spent)
	})
	return points
}
