package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateSplits inserts splits in order. The slice position is kept in seq so
// splits read back in the order they were written.
func (q *queries) CreateSplits(ctx context.Context, splits []models.ExpenseSplit) error {
	query := `
		INSERT INTO expense_splits (id, expense_id, user_id, amount, seq, is_settled, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, split := range splits {
		_, err := q.exec(ctx, query,
			split.ID,
			split.ExpenseID,
			split.UserID,
			split.Amount,
			i,
			split.IsSettled,
			settledAtValue(split),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func settledAtValue(split models.ExpenseSplit) sql.NullInt64 {
	if split.SettledAt == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*split.SettledAt), Valid: true}
}

// DeleteSplitsByExpense deletes all splits of an expense.
func (q *queries) DeleteSplitsByExpense(ctx context.Context, expenseID string) error {
	if _, err := q.exec(ctx, `DELETE FROM expense_splits WHERE expense_id = ?`, expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return nil
}

// DeleteSplitsByGroup deletes all splits of every expense in a group.
func (q *queries) DeleteSplitsByGroup(ctx context.Context, groupID string) error {
	query := `
		DELETE FROM expense_splits
		WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = ?)
	`
	if _, err := q.exec(ctx, query, groupID); err != nil {
		return fmt.Errorf("failed to delete group splits: %w", err)
	}
	return nil
}

// UpdateSplitSettlement writes the settlement state of a split.
func (q *queries) UpdateSplitSettlement(ctx context.Context, split *models.ExpenseSplit) error {
	query := `UPDATE expense_splits SET is_settled = ?, settled_at = ? WHERE id = ?`
	err := q.execOne(ctx, storage.ErrSplitNotFound, query,
		split.IsSettled,
		settledAtValue(*split),
		split.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update split: %w", err)
	}
	return nil
}

// CountOutstandingSplits counts unsettled splits in the group that the user
// either owes or is owed. A payer's own share is never outstanding.
func (q *queries) CountOutstandingSplits(ctx context.Context, groupID, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = ?
		  AND s.is_settled = ?
		  AND s.user_id <> e.payer_id
		  AND (s.user_id = ? OR e.payer_id = ?)
	`
	var n int
	if err := q.queryRow(ctx, query, groupID, false, userID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outstanding splits: %w", mapError(err))
	}
	return n, nil
}

// attachSplits loads splits for the given expenses in one query.
func (q *queries) attachSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
		ids = append(ids, e.ID)
		e.Splits = []models.ExpenseSplit{}
	}

	query := `
		SELECT id, expense_id, user_id, amount, is_settled, settled_at
		FROM expense_splits
		WHERE expense_id IN (` + placeholders(len(ids)) + `)
		ORDER BY expense_id, seq
	`
	rows, err := q.query(ctx, query, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			split     models.ExpenseSplit
			settledAt sql.NullInt64
		)
		if err := rows.Scan(
			&split.ID,
			&split.ExpenseID,
			&split.UserID,
			&split.Amount,
			&split.IsSettled,
			&settledAt,
		); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if settledAt.Valid {
			t := fromUnix(settledAt.Int64)
			split.SettledAt = &t
		}
		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating splits: %w", err)
	}
	return nil
}
