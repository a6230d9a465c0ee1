// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// ExpenseFilter narrows ListExpenses. Empty fields do not filter.
type ExpenseFilter struct {
	// GroupID restricts to one group.
	GroupID string

	// GroupIDs restricts to any of several groups.
	GroupIDs []string

	// PayerIDs restricts to expenses paid by any of these users.
	PayerIDs []string
}

// Queries defines every storage operation. It is implemented both on the
// plain connection and inside a transaction (see Store.RunInTx).
type Queries interface {
	// CreateUser inserts a new user. Returns ErrDuplicate if the username or
	// email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	// SearchUsers returns users whose username contains query (case-insensitive).
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)

	// CreateGroup persists a new group. The group.ID and CreatedAt fields
	// are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes only the group row. Callers delete dependents first.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember inserts a membership row.
	AddMember(ctx context.Context, m *models.Membership) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	// ListGroupMembers walks the membership from the group side.
	ListGroupMembers(ctx context.Context, groupID string) ([]*models.User, error)
	// ListUserGroups walks the membership from the user side.
	ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error)
	DeleteMembershipsByGroup(ctx context.Context, groupID string) error

	// CreateExpense inserts the expense row only; splits go through CreateSplits.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	// GetExpense returns the expense with its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	DeleteExpensesByGroup(ctx context.Context, groupID string) error
	// ListExpenses returns matching expenses, newest first, with splits.
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error)
	// ListRecentExpensesForUser returns expenses the user paid or has a split
	// in, newest first.
	ListRecentExpensesForUser(ctx context.Context, userID string, limit int) ([]*models.Expense, error)

	CreateSplits(ctx context.Context, splits []models.ExpenseSplit) error
	DeleteSplitsByExpense(ctx context.Context, expenseID string) error
	DeleteSplitsByGroup(ctx context.Context, groupID string) error
	// UpdateSplitSettlement writes is_settled and settled_at together.
	UpdateSplitSettlement(ctx context.Context, split *models.ExpenseSplit) error
	// CountOutstandingSplits counts unsettled splits in a group where the user
	// is either the owner or the payer.
	CountOutstandingSplits(ctx context.Context, groupID, userID string) (int, error)
}

// Store is the storage backend. It allows swapping backends (SQLite,
// PostgreSQL, ...) without changing the domain layer.
type Store interface {
	Queries

	// RunInTx runs fn inside one transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
