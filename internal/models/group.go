package models

import "time"

// DefaultCurrency is used when a group is created without a currency.
const DefaultCurrency = "USD"

// Group is a named collection of members sharing expenses.
// Members are not stored on the group; see Membership.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Description is optional free text.
	Description string

	// CreatorID is the user who created the group. Only the creator may
	// manage members, rename or delete the group.
	CreatorID string

	// Currency is the 3-letter currency code. Expenses copy it at creation.
	Currency string

	CreatedAt time.Time
}

// Membership links a user to a group.
type Membership struct {
	GroupID  string
	UserID   string
	JoinedAt time.Time
}
