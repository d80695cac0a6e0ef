package automation

import (
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

func TestScanBudget(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	user := models.User{ID: "user_001", MonthlyBudget: 1000}
	newID := func() string { return "alert-1" }

	grocery := func(amount float64, at time.Time) models.Expense {
		return models.Expense{Amount: amount, Category: "Groceries", CreatedAt: at}
	}

	tests := []struct {
		name     string
		expenses []models.Expense
		wantOver float64
		wantHit  bool
	}{
		{
			name:     "under threshold",
			expenses: []models.Expense{grocery(500, now)},
		},
		{
			name:     "exactly at threshold",
			expenses: []models.Expense{grocery(800, now)},
		},
		{
			name:     "over threshold",
			expenses: []models.Expense{grocery(600, now), grocery(250.5, now.Add(-48*time.Hour))},
			wantOver: 50.5,
			wantHit:  true,
		},
		{
			name:     "previous month ignored",
			expenses: []models.Expense{grocery(500, now), grocery(900, now.AddDate(0, -1, 0))},
		},
		{
			name: "other categories ignored",
			expenses: []models.Expense{
				grocery(100, now),
				{Amount: 5000, Category: "Travel", CreatedAt: now},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := ScanBudget(user, tt.expenses, now, newID)
			if !tt.wantHit {
				if alerts == nil || len(alerts) != 0 {
					t.Fatalf("Expected empty alert list, got %+v", alerts)
				}
				return
			}

			if len(alerts) != 1 {
				t.Fatalf("Expected 1 alert, got %d", len(alerts))
			}
			a := alerts[0]
			if a.Severity != models.SeverityWarning {
				t.Errorf("Expected warning severity, got %s", a.Severity)
			}
			if a.UserID != "user_001" || a.ID != "alert-1" {
				t.Errorf("Unexpected ids: %+v", a)
			}
			if diff := a.ProjectedOverspend - tt.wantOver; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected overspend %.2f, got %.4f", tt.wantOver, a.ProjectedOverspend)
			}
			want := "Grocery spending is on track to exceed your budget by $50.50."
			if a.Message != want {
				t.Errorf("Expected message %q, got %q", want, a.Message)
			}
			if !a.CreatedAt.Equal(now) {
				t.Errorf("Expected CreatedAt %v, got %v", now, a.CreatedAt)
			}
		})
	}
}
