package ledger

import (
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// DefaultUser is the profile a fresh client starts with.
var DefaultUser = models.User{
	ID:                "user_001",
	Name:              "Jordan Avery",
	Email:             "jordan@example.com",
	AvatarURL:         "https://i.pravatar.cc/150?img=32",
	PreferredLanguage: "en",
	MonthlyBudget:     1200,
}

// InitialState is an empty ledger operated by DefaultUser.
func InitialState() State {
	return State{
		CurrentUser:  DefaultUser,
		Groups:       []models.Group{},
		Expenses:     []models.Expense{},
		Insights:     []models.AiInsight{},
		Reports:      []models.AutoReport{},
		BudgetAlerts: []models.BudgetAlert{},
		Settlements:  []models.Settlement{},
	}
}

// SampleState returns demo data with timestamps relative to now.
func SampleState(now time.Time) State {
	day := 24 * time.Hour
	ago := func(d time.Duration) time.Time { return now.Add(-d).UTC() }

	return State{
		CurrentUser: DefaultUser,
		Groups: []models.Group{
			{
				ID:          "group_travel",
				Name:        "Lisbon Escape",
				Description: "Friends weekend getaway to Lisbon with food, travel, and tours.",
				Currency:    "EUR",
				MemberIDs:   []string{"user_001", "user_002", "user_003", "user_004"},
				CreatedAt:   ago(45 * day),
				UpdatedAt:   ago(1 * day),
			},
			{
				ID:          "group_roommates",
				Name:        "Mission Loft",
				Description: "Monthly shared living expenses for the Mission district apartment.",
				Currency:    "USD",
				MemberIDs:   []string{"user_001", "user_005", "user_006"},
				CreatedAt:   ago(120 * day),
				UpdatedAt:   ago(3 * day),
			},
		},
		Expenses: []models.Expense{
			{
				ID:        "expense_001",
				GroupID:   "group_travel",
				PayerID:   "user_001",
				Title:     "Airbnb - Alfama Loft",
				Amount:    640,
				Currency:  "EUR",
				Category:  "Lodging",
				CreatedAt: ago(6 * day),
				Splits: []models.ExpenseSplit{
					{UserID: "user_001", Amount: 160},
					{UserID: "user_002", Amount: 160},
					{UserID: "user_003", Amount: 160},
					{UserID: "user_004", Amount: 160},
				},
				Notes: "3 nights in Lisbon. Paid through credit card.",
				Tags:  []string{"travel", "lodging"},
			},
			{
				ID:        "expense_002",
				GroupID:   "group_travel",
				PayerID:   "user_003",
				Title:     "Seafood Dinner - Cervejaria Ramiro",
				Amount:    280,
				Currency:  "EUR",
				Category:  "Dining",
				CreatedAt: ago(5 * day),
				Splits: []models.ExpenseSplit{
					{UserID: "user_001", Amount: 70},
					{UserID: "user_002", Amount: 70},
					{UserID: "user_003", Amount: 70},
					{UserID: "user_004", Amount: 70},
				},
				Notes: "Included oysters, lobster, and desserts.",
				Tags:  []string{"foodie"},
			},
			{
				ID:        "expense_003",
				GroupID:   "group_roommates",
				PayerID:   "user_005",
				Title:     "February Rent",
				Amount:    4200,
				Currency:  "USD",
				Category:  "Housing",
				CreatedAt: ago(20 * day),
				Splits: []models.ExpenseSplit{
					{UserID: "user_001", Amount: 1400},
					{UserID: "user_005", Amount: 1400},
					{UserID: "user_006", Amount: 1400},
				},
				Tags: []string{"rent"},
			},
			{
				ID:        "expense_004",
				GroupID:   "group_roommates",
				PayerID:   "user_001",
				Title:     "Groceries - Rainbow Grocery",
				Amount:    189.45,
				Currency:  "USD",
				Category:  "Groceries",
				CreatedAt: ago(3 * day),
				Splits: []models.ExpenseSplit{
					{UserID: "user_001", Amount: 63.15},
					{UserID: "user_005", Amount: 63.15},
					{UserID: "user_006", Amount: 63.15},
				},
			},
		},
		Insights: []models.AiInsight{
			{
				ID:          "insight_001",
				Title:       "Dining is trending up",
				Description: "Dining spend in Lisbon Escape is 30% above your usual trip average.",
				Impact:      models.ImpactMedium,
				CreatedAt:   ago(1 * day),
				Actions:     []string{"Set a dining cap for the next trip", "Review shared restaurant bills"},
			},
		},
		Reports: []models.AutoReport{
			{
				ID:         "report_001",
				GroupID:    "group_roommates",
				Title:      "Mission Loft summary",
				Summary:    "Mission Loft recorded 2 expenses totalling $4389.45.",
				Highlights: []string{"Rent is 96% of shared spend.", "Groceries stayed within budget.", "One settlement clears all balances."},
				Settlements: []models.Settlement{
					{From: "user_006", To: "user_005", Amount: 1463.15, Currency: "USD"},
				},
				TotalSpend:  4389.45,
				GeneratedAt: ago(2 * day),
			},
		},
		BudgetAlerts: []models.BudgetAlert{
			{
				ID:                 "alert_001",
				UserID:             "user_001",
				GroupID:            "group_roommates",
				Message:            "Housing costs are on track to exceed this month's budget.",
				Severity:           models.SeverityInfo,
				ProjectedOverspend: 0,
				CreatedAt:          ago(1 * day),
			},
		},
		Settlements: []models.Settlement{},
	}
}
