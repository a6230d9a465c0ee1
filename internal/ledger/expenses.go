package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// NewExpense is the input to CreateExpense.
type NewExpense struct {
	GroupID     string
	PayerID     string
	Description string
	Amount      decimal.Decimal

	// Currency is optional. When set it must match the group currency.
	Currency string

	// SplitWith lists the members sharing the expense. Duplicates are
	// ignored; order decides who absorbs rounding remainders.
	SplitWith []string
}

// ExpenseUpdate holds the fields UpdateExpense may change. Nil fields are
// left as they are.
type ExpenseUpdate struct {
	Description *string
	Amount      *decimal.Decimal
}

// SettleResult describes a settled split.
type SettleResult struct {
	Expense *models.Expense
	Split   models.ExpenseSplit
	Payer   *models.User
}

// CreateExpense records an expense paid by in.PayerID and splits it equally
// among in.SplitWith. Expense and splits are written in one transaction.
func (l *Ledger) CreateExpense(ctx context.Context, in NewExpense) (*models.Expense, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, validationf("description is required")
	}
	splitWith := uniqueIDs(in.SplitWith)
	if len(splitWith) == 0 {
		return nil, validationf("select at least one member to split with")
	}
	if err := CheckAmountShape(in.Amount); err != nil {
		return nil, err
	}

	var expense *models.Expense
	err := l.inTx(ctx, func(q storage.Queries) error {
		group, err := loadGroup(ctx, q, in.GroupID)
		if err != nil {
			return err
		}
		if in.Currency != "" {
			currency, err := NormalizeCurrency(in.Currency)
			if err != nil {
				return err
			}
			if currency != group.Currency {
				return validationf("expense currency %s does not match group currency %s", currency, group.Currency)
			}
		}
		if err := validateAmount(in.Amount, group.Currency); err != nil {
			return err
		}

		members, err := memberSet(ctx, q, group.ID)
		if err != nil {
			return err
		}
		if !members[in.PayerID] {
			return validationf("payer is not a member of this group")
		}
		if err := requireAllMembers(members, splitWith); err != nil {
			return err
		}

		now := l.now()
		expense = &models.Expense{
			ID:          l.newID(),
			GroupID:     group.ID,
			PayerID:     in.PayerID,
			Description: description,
			Amount:      in.Amount,
			Currency:    group.Currency,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if expense.Splits, err = l.equalSplits(expense, splitWith); err != nil {
			return err
		}

		if err := q.CreateExpense(ctx, expense); err != nil {
			return err
		}
		return q.CreateSplits(ctx, expense.Splits)
	})
	if err != nil {
		return nil, err
	}

	l.recorder.ExpenseCreated(expense.Currency, expense.Amount)
	return expense, nil
}

// GetExpense returns an expense with its splits. The viewer must be a member
// of the expense's group.
func (l *Ledger) GetExpense(ctx context.Context, expenseID, viewerID string) (*models.Expense, error) {
	var expense *models.Expense
	err := l.inTx(ctx, func(q storage.Queries) error {
		var err error
		if expense, err = q.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		return requireMember(ctx, q, expense.GroupID, viewerID)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateSplits replaces the expense's splits with a fresh equal split among
// memberIDs. All new splits start unsettled. Payer only.
func (l *Ledger) UpdateSplits(ctx context.Context, expenseID, actorID string, memberIDs []string) (*models.Expense, error) {
	var expense *models.Expense
	err := l.inTx(ctx, func(q storage.Queries) error {
		var err error
		if expense, err = q.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		if expense.PayerID != actorID {
			return unauthorizedf("only the payer can change how an expense is split")
		}

		ids := uniqueIDs(memberIDs)
		if len(ids) == 0 {
			return validationf("select at least one member to split with")
		}
		members, err := memberSet(ctx, q, expense.GroupID)
		if err != nil {
			return err
		}
		if err := requireAllMembers(members, ids); err != nil {
			return err
		}

		return l.resplit(ctx, q, expense, ids)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense changes the description and/or amount. A new amount is
// split equally among the current split members, all unsettled. Payer only.
func (l *Ledger) UpdateExpense(ctx context.Context, expenseID, actorID string, update ExpenseUpdate) (*models.Expense, error) {
	if update.Amount != nil {
		if err := CheckAmountShape(*update.Amount); err != nil {
			return nil, err
		}
	}

	var expense *models.Expense
	err := l.inTx(ctx, func(q storage.Queries) error {
		var err error
		if expense, err = q.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		if expense.PayerID != actorID {
			return unauthorizedf("only the payer can edit an expense")
		}

		if update.Description != nil {
			description := strings.TrimSpace(*update.Description)
			if description == "" {
				return validationf("description is required")
			}
			expense.Description = description
		}

		if update.Amount == nil || update.Amount.Equal(expense.Amount) {
			expense.UpdatedAt = l.now()
			return q.UpdateExpense(ctx, expense)
		}

		if err := validateAmount(*update.Amount, expense.Currency); err != nil {
			return err
		}
		members, err := memberSet(ctx, q, expense.GroupID)
		if err != nil {
			return err
		}
		ids := expense.SplitMemberIDs()
		if err := requireAllMembers(members, ids); err != nil {
			return err
		}
		expense.Amount = *update.Amount
		return l.resplit(ctx, q, expense, ids)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// resplit writes the expense row and replaces its splits with an equal split
// among ids.
func (l *Ledger) resplit(ctx context.Context, q storage.Queries, expense *models.Expense, ids []string) error {
	splits, err := l.equalSplits(expense, ids)
	if err != nil {
		return err
	}
	expense.UpdatedAt = l.now()
	if err := q.UpdateExpense(ctx, expense); err != nil {
		return err
	}
	if err := q.DeleteSplitsByExpense(ctx, expense.ID); err != nil {
		return err
	}
	if err := q.CreateSplits(ctx, splits); err != nil {
		return err
	}
	expense.Splits = splits
	return nil
}

// DeleteExpense deletes an expense and its splits. Allowed for the payer and
// the group creator.
func (l *Ledger) DeleteExpense(ctx context.Context, expenseID, actorID string) error {
	return l.inTx(ctx, func(q storage.Queries) error {
		expense, err := q.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense.PayerID != actorID {
			group, err := loadGroup(ctx, q, expense.GroupID)
			if err != nil {
				return err
			}
			if group.CreatorID != actorID {
				return unauthorizedf("only the payer or the group creator can delete an expense")
			}
		}
		if err := q.DeleteSplitsByExpense(ctx, expense.ID); err != nil {
			return err
		}
		return q.DeleteExpense(ctx, expense.ID)
	})
}

// SettleSplit marks the actor's own split on an expense as settled. When
// groupID is set the expense must belong to that group.
func (l *Ledger) SettleSplit(ctx context.Context, actorID, groupID, expenseID string) (*SettleResult, error) {
	var result *SettleResult
	err := l.inTx(ctx, func(q storage.Queries) error {
		expense, err := loadExpenseInGroup(ctx, q, groupID, expenseID)
		if err != nil {
			return err
		}
		if expense.PayerID == actorID {
			return validationf("you cannot settle an expense you paid for")
		}
		split, ok := expense.SplitFor(actorID)
		if !ok {
			return notFoundf("you are not involved in this expense")
		}
		if err := Settle(split, l.now()); err != nil {
			return err
		}
		if err := q.UpdateSplitSettlement(ctx, split); err != nil {
			return err
		}
		payer, err := q.GetUserByID(ctx, expense.PayerID)
		if err != nil {
			return err
		}
		result = &SettleResult{Expense: expense, Split: *split, Payer: payer}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.recorder.SplitSettled()
	return result, nil
}

// UnsettleSplit reverses a settlement. userID selects whose split; empty
// means the actor's. The split owner and the payer may reverse it.
func (l *Ledger) UnsettleSplit(ctx context.Context, actorID, groupID, expenseID, userID string) (*SettleResult, error) {
	if userID == "" {
		userID = actorID
	}

	var result *SettleResult
	err := l.inTx(ctx, func(q storage.Queries) error {
		expense, err := loadExpenseInGroup(ctx, q, groupID, expenseID)
		if err != nil {
			return err
		}
		split, ok := expense.SplitFor(userID)
		if !ok {
			return notFoundf("no split for this user on the expense")
		}
		if actorID != userID && actorID != expense.PayerID {
			return unauthorizedf("only the split owner or the payer can reverse a settlement")
		}
		if err := Unsettle(split); err != nil {
			return err
		}
		if err := q.UpdateSplitSettlement(ctx, split); err != nil {
			return err
		}
		payer, err := q.GetUserByID(ctx, expense.PayerID)
		if err != nil {
			return err
		}
		result = &SettleResult{Expense: expense, Split: *split, Payer: payer}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.recorder.SplitUnsettled()
	return result, nil
}

func loadExpenseInGroup(ctx context.Context, q storage.Queries, groupID, expenseID string) (*models.Expense, error) {
	expense, err := q.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if groupID != "" && expense.GroupID != groupID {
		return nil, notFoundf("expense not found in this group")
	}
	return expense, nil
}

// equalSplits divides the expense amount among ids using the currency's
// minor units.
func (l *Ledger) equalSplits(expense *models.Expense, ids []string) ([]models.ExpenseSplit, error) {
	shares, err := calculator.EqualSplit(expense.Amount, Precision(expense.Currency), ids)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if sum := calculator.SumShares(shares); !sum.Equal(expense.Amount) {
		return nil, validationf("split amounts %s do not add up to %s", sum, expense.Amount)
	}

	splits := make([]models.ExpenseSplit, len(shares))
	for i, s := range shares {
		splits[i] = models.ExpenseSplit{
			ID:        l.newID(),
			ExpenseID: expense.ID,
			UserID:    s.UserID,
			Amount:    s.Amount,
		}
	}
	return splits, nil
}

func requireAllMembers(members map[string]bool, ids []string) error {
	for _, id := range ids {
		if !members[id] {
			return validationf("user %s is not a member of this group", id)
		}
	}
	return nil
}

// uniqueIDs trims ids and drops blanks and repeats, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
