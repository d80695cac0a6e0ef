package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

const (
	// DeadZone is the balance band around zero treated as already settled.
	DeadZone = 0.5

	// settledEpsilon is the remaining magnitude at which a party is done.
	settledEpsilon = 0.01

	// SettlementCurrency labels every settlement regardless of the source
	// expenses' currencies. Multi-currency netting is not supported.
	SettlementCurrency = "USD"
)

// Balance is one identifier's net position.
// Positive means they are owed money, negative means they owe.
type Balance struct {
	UserID string  `json:"userId"`
	Net    float64 `json:"net"`
}

// NetBalances credits each payer with the expense amount and debits each
// split participant with their share, across every expense given and
// regardless of currency. Balances are returned in the order identifiers
// were first seen: the payer of an expense, then its split participants.
func NetBalances(expenses []models.Expense) []Balance {
	index := make(map[string]int)
	var balances []Balance

	add := func(userID string, delta float64) {
		i, ok := index[userID]
		if !ok {
			i = len(balances)
			index[userID] = i
			balances = append(balances, Balance{UserID: userID})
		}
		balances[i].Net += delta
	}

	for _, e := range expenses {
		add(e.PayerID, e.Amount)
		for _, s := range e.Splits {
			add(s.UserID, -s.Amount)
		}
	}
	return balances
}

// OptimizeSettlements reduces the debts implied by expenses to a list of
// transfers that brings every balance inside the dead-zone.
//
// Algorithm:
//   - Creditors have a balance above +DeadZone, debtors below -DeadZone,
//     both kept in discovery order (not sorted by magnitude)
//   - The current debtor pays the current creditor min(owed, due)
//   - A party is passed once its remaining magnitude is at most one cent
//
// This is a greedy approximation. It emits at most
// min(#debtors, #creditors) transfers but not necessarily the minimum.
func OptimizeSettlements(expenses []models.Expense) []models.Settlement {
	return SettleBalances(NetBalances(expenses))
}

// SettleBalances runs the greedy matching over precomputed balances.
func SettleBalances(balances []Balance) []models.Settlement {
	var creditors, debtors []Balance
	for _, b := range balances {
		if b.Net > DeadZone {
			creditors = append(creditors, b)
		} else if b.Net < -DeadZone {
			debtors = append(debtors, Balance{UserID: b.UserID, Net: -b.Net}) // Make positive
		}
	}

	settlements := []models.Settlement{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := min(debtor.Net, creditor.Net)
		settlements = append(settlements, models.Settlement{
			From:     debtor.UserID,
			To:       creditor.UserID,
			Amount:   roundCents(amount),
			Currency: SettlementCurrency,
		})

		debtor.Net -= amount
		creditor.Net -= amount

		if debtor.Net <= settledEpsilon {
			i++
		}
		if creditor.Net <= settledEpsilon {
			j++
		}
	}
	return settlements
}

// ApplySettlements returns balances after every transfer is executed:
// the payer's balance rises and the receiver's falls by the amount.
func ApplySettlements(balances []Balance, settlements []models.Settlement) []Balance {
	out := make([]Balance, len(balances))
	copy(out, balances)
	index := make(map[string]int, len(out))
	for i, b := range out {
		index[b.UserID] = i
	}
	for _, s := range settlements {
		if i, ok := index[s.From]; ok {
			out[i].Net += s.Amount
		}
		if i, ok := index[s.To]; ok {
			out[i].Net -= s.Amount
		}
	}
	return out
}

// ScopeToGroup keeps only the expenses belonging to groupID.
// An empty groupID keeps everything.
func ScopeToGroup(expenses []models.Expense, groupID string) []models.Expense {
	if groupID == "" {
		return expenses
	}
	var scoped []models.Expense
	for _, e := range expenses {
		if e.GroupID == groupID {
			scoped = append(scoped, e)
		}
	}
	return scoped
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
