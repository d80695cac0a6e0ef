package models

import "time"

// Impact is the expected effect of following an insight.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Valid reports whether i is one of the known impact levels.
func (i Impact) Valid() bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// AiInsight is an advisory note produced by the insight generator.
type AiInsight struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Impact      Impact    `json:"impact"`
	CreatedAt   time.Time `json:"createdAt"`
	Actions     []string  `json:"actions"`
}

// Severity grades a budget alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// BudgetAlert warns a user about projected overspending.
type BudgetAlert struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	GroupID            string    `json:"groupId,omitempty"`
	Message            string    `json:"message"`
	Severity           Severity  `json:"severity"`
	ProjectedOverspend float64   `json:"projectedOverspend"`
	CreatedAt          time.Time `json:"createdAt"`
}

// AutoReport is a generated spending summary, optionally scoped to a group.
type AutoReport struct {
	ID          string       `json:"id"`
	GroupID     string       `json:"groupId,omitempty"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Highlights  []string     `json:"highlights"`
	Settlements []Settlement `json:"settlements"`
	TotalSpend  float64      `json:"totalSpend"`
	GeneratedAt time.Time    `json:"generatedAt"`
	DownloadURL string       `json:"downloadUrl,omitempty"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AiMessage is one turn of an assistant conversation.
type AiMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReceiptExtraction is the structured reading of a receipt.
// It is advisory and never applied to the ledger automatically.
type ReceiptExtraction struct {
	Merchant string        `json:"merchant"`
	Total    float64       `json:"total"`
	Currency string        `json:"currency"`
	Date     string        `json:"date"`
	Items    []ReceiptItem `json:"items"`
	Notes    string        `json:"notes,omitempty"`
}

// ReceiptItem is one line of a receipt.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
