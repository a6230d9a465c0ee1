package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseSplit is one member's share of an expense.
//
// IsSettled and SettledAt always move together: a settled split has a
// non-nil SettledAt, an unsettled split has a nil one.
type ExpenseSplit struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	ExpenseID string

	// UserID is the member who owes this share to the expense's payer.
	UserID string

	// Amount is never negative.
	Amount decimal.Decimal

	IsSettled bool
	SettledAt *time.Time
}
