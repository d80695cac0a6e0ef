package ledgerrpc

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

type AddGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description,omitempty"`
	CoverImage  string   `json:"coverImage,omitempty" validate:"omitempty,url"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	MemberIDs   []string `json:"memberIds" validate:"dive,required"`
}

type AddGroupResponse struct {
	Group models.Group `json:"group"`
}

// UpdateGroupRequest changes a group. Empty fields are left unchanged and
// AddMemberIDs are appended; members cannot be removed.
type UpdateGroupRequest struct {
	GroupID      string   `json:"groupId" validate:"required"`
	Name         string   `json:"name,omitempty" validate:"max=120"`
	Description  string   `json:"description,omitempty"`
	CoverImage   string   `json:"coverImage,omitempty" validate:"omitempty,url"`
	AddMemberIDs []string `json:"addMemberIds,omitempty" validate:"dive,required"`
}

type UpdateGroupResponse struct {
	Group models.Group `json:"group"`
}

// AddExpenseRequest records an expense. Exactly one way of splitting is
// used: explicit Splits, Percentages by user, or, when both are empty, an
// equal split across the group's members (or the payer alone for a
// personal expense).
type AddExpenseRequest struct {
	GroupID     string                `json:"groupId,omitempty"`
	PayerID     string                `json:"payerId,omitempty"`
	Title       string                `json:"title" validate:"required"`
	Amount      float64               `json:"amount" validate:"gt=0"`
	Currency    string                `json:"currency,omitempty" validate:"omitempty,len=3"`
	Category    string                `json:"category,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	Splits      []models.ExpenseSplit `json:"splits,omitempty" validate:"excluded_with=Percentages"`
	Percentages map[string]float64    `json:"percentages,omitempty"`
	ReceiptURL  string                `json:"receiptUrl,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Location    string                `json:"location,omitempty"`
}

type AddExpenseResponse struct {
	Expense models.Expense `json:"expense"`
}

// UpdateProfileRequest changes the current user. Empty fields are left
// unchanged; MonthlyBudget is only changed when non-nil.
type UpdateProfileRequest struct {
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty" validate:"omitempty,email"`
	AvatarURL         string   `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty" validate:"omitempty,min=2,max=8"`
	MonthlyBudget     *float64 `json:"monthlyBudget,omitempty" validate:"omitempty,gte=0"`
}

type UpdateProfileResponse struct {
	User models.User `json:"user"`
}

// OptimizeSettlementsRequest optionally restricts optimization to one group.
type OptimizeSettlementsRequest struct {
	GroupID string `json:"groupId,omitempty"`
}

type OptimizeSettlementsResponse struct {
	Settlements []models.Settlement `json:"settlements"`
}

type RefreshInsightsRequest struct{}

type RefreshInsightsResponse struct {
	Insights []models.AiInsight `json:"insights"`
	Notice   string             `json:"notice,omitempty"`
}

type GenerateReportRequest struct {
	GroupID string `json:"groupId,omitempty"`
}

type GenerateReportResponse struct {
	Report models.AutoReport `json:"report"`
	Notice string            `json:"notice,omitempty"`
}

type ChatRequest struct {
	Messages []models.AiMessage `json:"messages" validate:"required,min=1,dive"`
}

type ChatResponse struct {
	Message models.AiMessage `json:"message"`
	Notice  string           `json:"notice,omitempty"`
}

type SendReminderRequest struct {
	To     string  `json:"to" validate:"required,email"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Note   string  `json:"note,omitempty" validate:"max=500"`
}

type SendReminderResponse struct {
	OK        bool `json:"ok"`
	Delivered bool `json:"delivered"`
}

type ScanBudgetRequest struct{}

type ScanBudgetResponse struct {
	Alerts []models.BudgetAlert `json:"alerts"`
}

// ScanReceiptRequest carries a receipt photo. Image is base64 in JSON.
type ScanReceiptRequest struct {
	Image     []byte `json:"image" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
	// Structured asks for extracted fields in addition to raw text.
	Structured bool `json:"structured,omitempty"`
}

type ScanReceiptResponse struct {
	Text       string                    `json:"text"`
	Extraction *models.ReceiptExtraction `json:"extraction,omitempty"`
	Notice     string                    `json:"notice,omitempty"`
}

type GetSnapshotRequest struct{}

type GetSnapshotResponse struct {
	State ledger.State `json:"state"`
}

// GetSummaryRequest optionally restricts the summary to one group.
type GetSummaryRequest struct {
	GroupID string `json:"groupId,omitempty"`
}

type GetSummaryResponse struct {
	TotalSpend     float64                 `json:"totalSpend"`
	MonthlySpend   float64                 `json:"monthlySpend"`
	ExpenseCount   int                     `json:"expenseCount"`
	GroupCount     int                     `json:"groupCount"`
	Balances       []calculator.Balance    `json:"balances"`
	MonthlyTotals  []calculator.MonthTotal `json:"monthlyTotals"`
	CategoryTotals map[string]float64      `json:"categoryTotals"`
}
