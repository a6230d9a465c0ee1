package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrPrecision      = errors.New("amount exceeds currency precision")
)

// Share is one participant's part of a split.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// EqualSplit divides total equally among participants.
//
// The division happens in whole minor units (places decimal digits). When the
// total does not divide evenly, the leftover units go one each to the first
// participants in order, so the shares always sum to exactly total:
//
//	100.00 / 3 => 33.34, 33.33, 33.33
//
// Participants are expected to be distinct.
func EqualSplit(total decimal.Decimal, places int32, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if total.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !total.Equal(total.Round(places)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrPrecision, total, places)
	}

	minor := total.Shift(places).IntPart()
	n := int64(len(participants))
	base, remainder := minor/n, minor%n

	shares := make([]Share, len(participants))
	for i, p := range participants {
		units := base
		if int64(i) < remainder {
			units++
		}
		shares[i] = Share{UserID: p, Amount: decimal.New(units, -places)}
	}
	return shares, nil
}

// SumShares adds up share amounts.
func SumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
