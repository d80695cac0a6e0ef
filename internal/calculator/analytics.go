package calculator

import (
	"sort"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// MonthTotal is the spend recorded in one calendar month.
type MonthTotal struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

// TotalSpend sums the amount of every expense.
func TotalSpend(expenses []models.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// MonthlySpend sums the expenses created in the same calendar month as now.
func MonthlySpend(expenses []models.Expense, now time.Time) float64 {
	var total float64
	for _, e := range expenses {
		if sameMonth(e.CreatedAt, now) {
			total += e.Amount
		}
	}
	return total
}

// MonthlyTotals buckets spend by month, oldest first, rounded to cents.
func MonthlyTotals(expenses []models.Expense) []MonthTotal {
	buckets := make(map[string]float64)
	for _, e := range expenses {
		buckets[e.CreatedAt.Format("2006-01")] += e.Amount
	}

	totals := make([]MonthTotal, 0, len(buckets))
	for month, amount := range buckets {
		totals = append(totals, MonthTotal{Month: month, Amount: roundCents(amount)})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })
	return totals
}

// CategoryTotals sums spend per category.
// If now is non-zero only expenses from now's calendar month are counted.
func CategoryTotals(expenses []models.Expense, now time.Time) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range expenses {
		if !now.IsZero() && !sameMonth(e.CreatedAt, now) {
			continue
		}
		totals[e.Category] += e.Amount
	}
	return totals
}

// sameMonth compares calendar months in b's location.
func sameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}
