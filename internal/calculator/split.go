package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitTolerance is the allowed gap between an expense amount and the sum
// of its splits.
const SplitTolerance = 0.01

var (
	ErrNoParticipants  = errors.New("must have at least one participant")
	ErrNonPositive     = errors.New("amount must be positive")
	ErrSplitMismatch   = errors.New("split amounts do not add up to the expense amount")
	ErrPercentageTotal = errors.New("percentages must add up to 100")
	ErrNegativeShare   = errors.New("share must not be negative")
)

// EqualSplits divides amount equally among participants. Shares are
// rounded to cents and the rounding remainder goes to the first
// participant so the splits add up exactly.
func EqualSplits(amount float64, participants []string) ([]models.ExpenseSplit, error) {
	if amount <= 0 {
		return nil, ErrNonPositive
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	total := decimal.NewFromFloat(amount)
	share := total.DivRound(decimal.NewFromInt(int64(len(participants))), 2)
	remainder := total.Sub(share.Mul(decimal.NewFromInt(int64(len(participants)))))

	splits := make([]models.ExpenseSplit, len(participants))
	for i, p := range participants {
		s := share
		if i == 0 {
			s = s.Add(remainder)
		}
		splits[i] = models.ExpenseSplit{UserID: p, Amount: s.InexactFloat64()}
	}
	return splits, nil
}

// PercentageSplits assigns each participant their percentage of amount.
// Percentages must be non-negative and add up to 100 within tolerance. The last participant
// absorbs rounding.
func PercentageSplits(amount float64, percentages map[string]float64, order []string) ([]models.ExpenseSplit, error) {
	if amount <= 0 {
		return nil, ErrNonPositive
	}
	if len(order) == 0 {
		return nil, ErrNoParticipants
	}

	var pctTotal float64
	for _, p := range order {
		if percentages[p] < 0 {
			return nil, fmt.Errorf("%w: %s has %.2f%%", ErrNegativeShare, p, percentages[p])
		}
		pctTotal += percentages[p]
	}
	if math.Abs(pctTotal-100) > SplitTolerance {
		return nil, fmt.Errorf("%w: got %.2f", ErrPercentageTotal, pctTotal)
	}

	total := decimal.NewFromFloat(amount)
	assigned := decimal.Zero
	splits := make([]models.ExpenseSplit, len(order))
	for i, p := range order {
		var s decimal.Decimal
		if i == len(order)-1 {
			s = total.Sub(assigned)
		} else {
			s = total.Mul(decimal.NewFromFloat(percentages[p])).Div(decimal.NewFromInt(100)).Round(2)
			assigned = assigned.Add(s)
		}
		splits[i] = models.ExpenseSplit{UserID: p, Amount: s.InexactFloat64()}
	}
	return splits, nil
}

// ValidateSplits checks that an expense's splits are well formed: at least
// one participant, no negative shares, and a total matching amount within
// SplitTolerance.
func ValidateSplits(amount float64, splits []models.ExpenseSplit) error {
	if amount <= 0 {
		return ErrNonPositive
	}
	if len(splits) == 0 {
		return ErrNoParticipants
	}

	var sum float64
	for _, s := range splits {
		if s.Amount < 0 {
			return fmt.Errorf("split for %s is negative", s.UserID)
		}
		sum += s.Amount
	}
	if math.Abs(sum-amount) > SplitTolerance {
		return fmt.Errorf("%w: splits total %.2f, amount %.2f", ErrSplitMismatch, sum, amount)
	}
	return nil
}
