package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an amount paid by one group member and split among members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID string

	// PayerID is the member who paid the full amount.
	PayerID string

	Description string

	// Amount is the total paid. Always positive once created.
	Amount decimal.Decimal

	// Currency is copied from the group when the expense is created.
	Currency string

	// Splits are the per-member shares. Their amounts sum to Amount.
	Splits []ExpenseSplit

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SplitFor returns the split owned by userID, if any.
func (e *Expense) SplitFor(userID string) (*ExpenseSplit, bool) {
	for i := range e.Splits {
		if e.Splits[i].UserID == userID {
			return &e.Splits[i], true
		}
	}
	return nil, false
}

// SplitMemberIDs returns the owners of the expense's splits in order.
func (e *Expense) SplitMemberIDs() []string {
	ids := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}
