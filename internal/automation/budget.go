// Package automation holds the rules that watch spending and raise alerts.
package automation

import (
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

const (
	// WatchedCategory is the category compared against the monthly budget.
	WatchedCategory = "Groceries"
	// BudgetThreshold is the share of the monthly budget that triggers an alert.
	BudgetThreshold = 0.8
)

// ScanBudget checks this calendar month's spend in WatchedCategory against
// BudgetThreshold of the user's monthly budget. It returns a single warning
// when the threshold is exceeded and an empty list otherwise.
func ScanBudget(user models.User, expenses []models.Expense, now time.Time, newID func() string) []models.BudgetAlert {
	spent := calculator.CategoryTotals(expenses, now)[WatchedCategory]
	threshold := user.MonthlyBudget * BudgetThreshold
	if spent <= threshold {
		return []models.BudgetAlert{}
	}

	over := spent - threshold
	return []models.BudgetAlert{{
		ID:                 newID(),
		UserID:             user.ID,
		Message:            fmt.Sprintf("Grocery spending is on track to exceed your budget by $%.2f.", over),
		Severity:           models.SeverityWarning,
		ProjectedOverspend: over,
		CreatedAt:          now.UTC(),
	}}
}
