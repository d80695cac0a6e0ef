package models

// Settlement represents a proposed payment that nets out balances.
//
// Settlements are derived data. The whole list is replaced every time the
// optimizer runs and is never edited by hand.
type Settlement struct {
	// From is the identifier of the debtor who should pay.
	From string `json:"from"`

	// To is the identifier of the creditor who should receive.
	To string `json:"to"`

	// Amount is the positive transfer amount, rounded to cents.
	Amount float64 `json:"amount"`

	// Currency labels the amount.
	Currency string `json:"currency"`
}
