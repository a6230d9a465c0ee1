package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `e.id, e.group_id, e.payer_id, e.description, e.amount, e.currency, e.created_at, e.updated_at`

// CreateExpense inserts the expense row. Splits are written separately.
func (q *queries) CreateExpense(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (id, group_id, payer_id, description, amount, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.exec(ctx, query,
		expense.ID,
		expense.GroupID,
		expense.PayerID,
		expense.Description,
		expense.Amount,
		expense.Currency,
		toUnix(expense.CreatedAt),
		toUnix(expense.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PayerID,
		&expense.Description,
		&expense.Amount,
		&expense.Currency,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	expense.CreatedAt = fromUnix(createdAt)
	expense.UpdatedAt = fromUnix(updatedAt)
	return expense, nil
}

// GetExpense retrieves an expense with its splits.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses e WHERE e.id = ?`

	expense, err := scanExpense(q.queryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(mapError(err), storage.ErrNotFound) {
			return nil, storage.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := q.attachSplits(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense updates the expense row. Splits are not touched.
func (q *queries) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	query := `
		UPDATE expenses
		SET payer_id = ?, description = ?, amount = ?, currency = ?, updated_at = ?
		WHERE id = ?
	`
	err := q.execOne(ctx, storage.ErrExpenseNotFound, query,
		expense.PayerID,
		expense.Description,
		expense.Amount,
		expense.Currency,
		toUnix(expense.UpdatedAt),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// DeleteExpense deletes the expense row. Delete its splits first.
func (q *queries) DeleteExpense(ctx context.Context, expenseID string) error {
	if err := q.execOne(ctx, storage.ErrExpenseNotFound, `DELETE FROM expenses WHERE id = ?`, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// DeleteExpensesByGroup deletes every expense row of a group.
func (q *queries) DeleteExpensesByGroup(ctx context.Context, groupID string) error {
	if _, err := q.exec(ctx, `DELETE FROM expenses WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete group expenses: %w", err)
	}
	return nil
}

// ListExpenses returns expenses matching filter, newest first, with splits.
func (q *queries) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	var (
		where []string
		args  []any
	)
	if filter.GroupID != "" {
		where = append(where, "e.group_id = ?")
		args = append(args, filter.GroupID)
	}
	if len(filter.GroupIDs) > 0 {
		where = append(where, "e.group_id IN ("+placeholders(len(filter.GroupIDs))+")")
		args = append(args, stringArgs(filter.GroupIDs)...)
	}
	if len(filter.PayerIDs) > 0 {
		where = append(where, "e.payer_id IN ("+placeholders(len(filter.PayerIDs))+")")
		args = append(args, stringArgs(filter.PayerIDs)...)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses e`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY e.created_at DESC, e.id`

	return q.listExpenses(ctx, query, args...)
}

// ListRecentExpensesForUser returns expenses the user paid or owes a share
// of, newest first.
func (q *queries) ListRecentExpensesForUser(ctx context.Context, userID string, limit int) ([]*models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		WHERE e.payer_id = ?
		   OR EXISTS (SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.user_id = ?)
		ORDER BY e.created_at DESC, e.id
		LIMIT ?
	`
	return q.listExpenses(ctx, query, userID, userID, limit)
}

func (q *queries) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	// Close before loading splits; SQLite runs on a single connection.
	rows.Close()

	if err := q.attachSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}
