package ledger

import "github.com/mmynk/splitledger/internal/models"

// Apply returns the state that results from applying cmd to s.
//
// Apply is total: nil and unrecognised commands return s unchanged, and no
// precondition failure is ever reported. The input state is never mutated;
// lists that change are rebuilt, lists that don't are shared.
func Apply(s State, cmd Command) State {
	switch c := cmd.(type) {
	case Initialize:
		return c.Patch.overlay(s)
	case AddGroup:
		s.Groups = prepend(s.Groups, c.Group)
	case UpdateGroup:
		s.Groups = replaceGroup(s, c)
	case AddExpense:
		s.Expenses = prepend(s.Expenses, c.Expense)
	case SetInsights:
		s.Insights = c.Insights
	case AddReport:
		s.Reports = prepend(s.Reports, c.Report)
	case SetAlerts:
		s.BudgetAlerts = c.Alerts
	case SetSettlements:
		s.Settlements = c.Settlements
	case SetLoading:
		s.IsLoading = c.Loading
	case UpdateProfile:
		s.CurrentUser = c.User
	}
	return s
}

// ApplyAll folds cmds over s in order.
func ApplyAll(s State, cmds ...Command) State {
	for _, cmd := range cmds {
		s = Apply(s, cmd)
	}
	return s
}

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

func replaceGroup(s State, c UpdateGroup) []models.Group {
	if _, ok := s.Group(c.Group.ID); !ok {
		return s.Groups
	}
	out := make([]models.Group, len(s.Groups))
	for i, g := range s.Groups {
		if g.ID == c.Group.ID {
			g = c.Group
		}
		out[i] = g
	}
	return out
}
