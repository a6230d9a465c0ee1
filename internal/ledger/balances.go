package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// RecentLimit is the number of expenses shown on the dashboard.
const RecentLimit = 10

// GroupView is everything shown on a group page.
type GroupView struct {
	Group    *models.Group
	Members  []*models.User
	Expenses []*models.Expense

	// Balances maps member ID to the net outstanding amount: positive when
	// the member is owed money, negative when they owe. Settled splits do
	// not count.
	Balances map[string]decimal.Decimal
}

// BalanceSheet is the detailed outstanding position of a group.
type BalanceSheet struct {
	Group    *models.Group
	Members  []*models.User
	Balances map[string]*calculator.MemberBalance

	// Payments is a short list of transfers that would clear every balance.
	Payments []calculator.DebtEdge
}

// GroupSummary is one user's position in a group.
type GroupSummary struct {
	Group *models.Group

	// Stake is what the user paid minus their own splits, settled or not.
	Stake decimal.Decimal

	// Outstanding is the user's unsettled net position in the group.
	Outstanding decimal.Decimal
}

// Dashboard is the per-user overview across all groups.
type Dashboard struct {
	Groups []GroupSummary

	// Balances lists non-zero outstanding balances against each counterparty,
	// per group. Positive means the counterparty owes the user.
	Balances []calculator.PairBalance

	// TotalOwed and TotalOwes are keyed by currency code. Amounts in
	// different currencies are never added together.
	TotalOwed map[string]decimal.Decimal
	TotalOwes map[string]decimal.Decimal

	RecentExpenses []*models.Expense

	// Users resolves every user ID referenced above.
	Users map[string]*models.User
}

// toEntries reduces expenses to calculator entries.
func toEntries(expenses []*models.Expense) []calculator.Entry {
	entries := make([]calculator.Entry, len(expenses))
	for i, e := range expenses {
		splits := make([]calculator.SplitShare, len(e.Splits))
		for j, s := range e.Splits {
			splits[j] = calculator.SplitShare{UserID: s.UserID, Amount: s.Amount, Settled: s.IsSettled}
		}
		entries[i] = calculator.Entry{
			ExpenseID: e.ID,
			GroupID:   e.GroupID,
			PayerID:   e.PayerID,
			Amount:    e.Amount,
			Splits:    splits,
		}
	}
	return entries
}

// PairwiseBalance returns what b owes a in unsettled splits, net of what a
// owes b. An empty groupID covers every group; otherwise a must be a member.
func (l *Ledger) PairwiseBalance(ctx context.Context, a, b, groupID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.inTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetUserByID(ctx, b); err != nil {
			return err
		}
		filter := storage.ExpenseFilter{PayerIDs: []string{a, b}}
		if groupID != "" {
			if _, err := loadGroup(ctx, q, groupID); err != nil {
				return err
			}
			if err := requireMember(ctx, q, groupID, a); err != nil {
				return err
			}
			filter.GroupID = groupID
		}
		expenses, err := q.ListExpenses(ctx, filter)
		if err != nil {
			return err
		}
		balance = calculator.PairwiseBalance(toEntries(expenses), a, b, groupID)
		return nil
	})
	return balance, err
}

// GroupBalances returns the outstanding owes/owed of every member with the
// pairwise breakdown and suggested payments. The viewer must be a member.
func (l *Ledger) GroupBalances(ctx context.Context, groupID, viewerID string) (*BalanceSheet, error) {
	sheet := &BalanceSheet{}
	err := l.inTx(ctx, func(q storage.Queries) error {
		var (
			expenses []*models.Expense
			err      error
		)
		sheet.Group, sheet.Members, expenses, err = loadGroupLedger(ctx, q, groupID, viewerID)
		if err != nil {
			return err
		}
		sheet.Balances = calculator.GroupBalances(userIDs(sheet.Members), toEntries(expenses))
		sheet.Payments = calculator.SimplifyDebts(sheet.Balances)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// UserGroupBalance returns the group with the user's total stake in it
// (amounts paid minus their own split amounts, regardless of settlement) and
// their unsettled net position.
func (l *Ledger) UserGroupBalance(ctx context.Context, userID, groupID string) (*GroupSummary, error) {
	var summary *GroupSummary
	err := l.inTx(ctx, func(q storage.Queries) error {
		group, err := loadGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, q, groupID, userID); err != nil {
			return err
		}
		expenses, err := q.ListExpenses(ctx, storage.ExpenseFilter{GroupID: groupID})
		if err != nil {
			return err
		}
		entries := toEntries(expenses)
		summary = &GroupSummary{
			Group:       group,
			Stake:       calculator.UserGroupBalance(entries, userID, groupID),
			Outstanding: decimal.Zero,
		}
		for _, b := range calculator.UserBalances(entries, userID) {
			summary.Outstanding = summary.Outstanding.Add(b.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GroupView loads a group with its members, expenses and net outstanding
// balances. The viewer must be a member.
func (l *Ledger) GroupView(ctx context.Context, groupID, viewerID string) (*GroupView, error) {
	view := &GroupView{}
	err := l.inTx(ctx, func(q storage.Queries) error {
		var err error
		view.Group, view.Members, view.Expenses, err = loadGroupLedger(ctx, q, groupID, viewerID)
		if err != nil {
			return err
		}
		balances := calculator.GroupBalances(userIDs(view.Members), toEntries(view.Expenses))
		view.Balances = make(map[string]decimal.Decimal, len(balances))
		for id, mb := range balances {
			view.Balances[id] = mb.Net
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Dashboard builds the overview for userID across all of their groups.
func (l *Ledger) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	dash := &Dashboard{
		TotalOwed: make(map[string]decimal.Decimal),
		TotalOwes: make(map[string]decimal.Decimal),
	}
	err := l.inTx(ctx, func(q storage.Queries) error {
		groups, err := q.ListUserGroups(ctx, userID)
		if err != nil {
			return err
		}
		groupIDs := make([]string, len(groups))
		currencies := make(map[string]string, len(groups))
		for i, g := range groups {
			groupIDs[i] = g.ID
			currencies[g.ID] = g.Currency
		}

		var entries []calculator.Entry
		if len(groupIDs) > 0 {
			expenses, err := q.ListExpenses(ctx, storage.ExpenseFilter{GroupIDs: groupIDs})
			if err != nil {
				return err
			}
			entries = toEntries(expenses)
		}

		dash.Balances = calculator.UserBalances(entries, userID)
		outstanding := make(map[string]decimal.Decimal, len(groups))
		for _, b := range dash.Balances {
			outstanding[b.GroupID] = outstanding[b.GroupID].Add(b.Amount)
			currency := currencies[b.GroupID]
			if b.Amount.IsPositive() {
				dash.TotalOwed[currency] = dash.TotalOwed[currency].Add(b.Amount)
			} else {
				dash.TotalOwes[currency] = dash.TotalOwes[currency].Add(b.Amount.Neg())
			}
		}

		dash.Groups = make([]GroupSummary, len(groups))
		for i, g := range groups {
			dash.Groups[i] = GroupSummary{
				Group:       g,
				Stake:       calculator.UserGroupBalance(entries, userID, g.ID),
				Outstanding: outstanding[g.ID],
			}
		}

		if dash.RecentExpenses, err = q.ListRecentExpensesForUser(ctx, userID, RecentLimit); err != nil {
			return err
		}

		ids := []string{userID}
		for _, b := range dash.Balances {
			ids = append(ids, b.Counterparty)
		}
		for _, e := range dash.RecentExpenses {
			ids = append(ids, e.PayerID)
		}
		dash.Users, err = q.GetUsersByIDs(ctx, uniqueIDs(ids))
		return err
	})
	if err != nil {
		return nil, err
	}
	return dash, nil
}

// loadGroupLedger loads a group, its members and its expenses after checking
// that viewerID is a member.
func loadGroupLedger(ctx context.Context, q storage.Queries, groupID, viewerID string) (*models.Group, []*models.User, []*models.Expense, error) {
	group, err := loadGroup(ctx, q, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := requireMember(ctx, q, groupID, viewerID); err != nil {
		return nil, nil, nil, err
	}
	members, err := q.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	expenses, err := q.ListExpenses(ctx, storage.ExpenseFilter{GroupID: groupID})
	if err != nil {
		return nil, nil, nil, err
	}
	return group, members, expenses, nil
}

func userIDs(users []*models.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
