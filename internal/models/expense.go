package models

import "time"

// Expense represents money advanced by one payer on behalf of others.
//
// Expenses are immutable once created. The split amounts are expected to
// add up to Amount but the model does not enforce it.
type Expense struct {
	// ID is the unique identifier for the expense.
	ID string `json:"id"`

	// GroupID references the owning group. Empty means a personal expense.
	GroupID string `json:"groupId,omitempty"`

	// PayerID is the user who advanced the money.
	PayerID string `json:"payerId"`

	// Title is a short description (e.g., "Seafood Dinner").
	Title string `json:"title"`

	// Amount is the positive total paid.
	Amount float64 `json:"amount"`

	// Currency is the code the amount is expressed in.
	Currency string `json:"currency"`

	// Category groups expenses for analytics (e.g., "Groceries").
	Category string `json:"category"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is when the expense was recorded.
	CreatedAt time.Time `json:"createdAt"`

	// Splits are the shares each participant owes.
	Splits []ExpenseSplit `json:"splits"`

	// ReceiptURL optionally links to a scanned receipt.
	ReceiptURL string `json:"receiptUrl,omitempty"`

	// Tags are optional labels.
	Tags []string `json:"tags,omitempty"`

	// Location is optional free text.
	Location string `json:"location,omitempty"`
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// IsPersonal reports whether the expense belongs to no group.
func (e Expense) IsPersonal() bool {
	return e.GroupID == ""
}

// SplitTotal returns the sum of all split amounts.
func (e Expense) SplitTotal() float64 {
	var total float64
	for _, s := range e.Splits {
		total += s.Amount
	}
	return total
}
