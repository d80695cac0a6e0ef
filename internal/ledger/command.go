package ledger

import "github.com/mmynk/splitledger/internal/models"

// CommandType names a command on the wire.
type CommandType string

const (
	TypeInitialize     CommandType = "INITIALIZE"
	TypeAddGroup       CommandType = "ADD_GROUP"
	TypeUpdateGroup    CommandType = "UPDATE_GROUP"
	TypeAddExpense     CommandType = "ADD_EXPENSE"
	TypeSetInsights    CommandType = "SET_INSIGHTS"
	TypeAddReport      CommandType = "ADD_REPORT"
	TypeSetAlerts      CommandType = "SET_ALERTS"
	TypeSetSettlements CommandType = "SET_SETTLEMENTS"
	TypeSetLoading     CommandType = "SET_LOADING"
	TypeUpdateProfile  CommandType = "UPDATE_PROFILE"
)

// Command is a typed request to transition a State.
type Command interface {
	Type() CommandType
}

// Initialize overlays the present fields of Patch. Used for bootstrap and restore.
type Initialize struct{ Patch Patch }

// AddGroup prepends Group to the group list.
type AddGroup struct{ Group models.Group }

// UpdateGroup replaces the group with the same ID.
type UpdateGroup struct{ Group models.Group }

// AddExpense prepends Expense to the expense list.
type AddExpense struct{ Expense models.Expense }

// SetInsights replaces the insight list.
type SetInsights struct{ Insights []models.AiInsight }

// AddReport prepends Report to the report list.
type AddReport struct{ Report models.AutoReport }

// SetAlerts replaces the budget alert list.
type SetAlerts struct{ Alerts []models.BudgetAlert }

// SetSettlements replaces the settlement list.
type SetSettlements struct{ Settlements []models.Settlement }

// SetLoading replaces the loading flag.
type SetLoading struct{ Loading bool }

// UpdateProfile replaces the current user profile.
type UpdateProfile struct{ User models.User }

// Unknown is a command whose type this build does not recognise.
// Apply ignores it.
type Unknown struct{ Name CommandType }

func (Initialize) Type() CommandType     { return TypeInitialize }
func (AddGroup) Type() CommandType       { return TypeAddGroup }
func (UpdateGroup) Type() CommandType    { return TypeUpdateGroup }
func (AddExpense) Type() CommandType     { return TypeAddExpense }
func (SetInsights) Type() CommandType    { return TypeSetInsights }
func (AddReport) Type() CommandType      { return TypeAddReport }
func (SetAlerts) Type() CommandType      { return TypeSetAlerts }
func (SetSettlements) Type() CommandType { return TypeSetSettlements }
func (SetLoading) Type() CommandType     { return TypeSetLoading }
func (UpdateProfile) Type() CommandType  { return TypeUpdateProfile }
func (u Unknown) Type() CommandType      { return u.Name }
