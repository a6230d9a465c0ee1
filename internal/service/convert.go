package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// publicUser hides the email address.
func publicUser(u *models.User) User {
	return User{ID: u.ID, Username: u.Username}
}

func selfUser(u *models.User) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: formatTime(u.CreatedAt)}
}

func publicUsers(users []*models.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = publicUser(u)
	}
	return out
}

func groupMsg(g *models.Group) Group {
	return Group{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		CreatorID:      g.CreatorID,
		Currency:       g.Currency,
		CurrencySymbol: ledger.Symbol(g.Currency),
		CreatedAt:      formatTime(g.CreatedAt),
	}
}

func splitMsg(s models.ExpenseSplit, currency string) Split {
	msg := Split{
		ID:        s.ID,
		UserID:    s.UserID,
		Amount:    ledger.FormatAmount(s.Amount, currency),
		IsSettled: s.IsSettled,
	}
	if s.SettledAt != nil {
		msg.SettledAt = formatTime(*s.SettledAt)
	}
	return msg
}

func expenseMsg(e *models.Expense) Expense {
	splits := make([]Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = splitMsg(s, e.Currency)
	}
	return Expense{
		ID:             e.ID,
		GroupID:        e.GroupID,
		PayerID:        e.PayerID,
		Description:    e.Description,
		Amount:         ledger.FormatAmount(e.Amount, e.Currency),
		Currency:       e.Currency,
		CurrencySymbol: ledger.Symbol(e.Currency),
		Splits:         splits,
		CreatedAt:      formatTime(e.CreatedAt),
		UpdatedAt:      formatTime(e.UpdatedAt),
	}
}

func expenseMsgs(expenses []*models.Expense) []Expense {
	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseMsg(e)
	}
	return out
}

func formatAmounts(m map[string]decimal.Decimal, currency string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ledger.FormatAmount(v, currency)
	}
	return out
}

func balanceSheetMsg(sheet *ledger.BalanceSheet) *GroupBalancesResponse {
	currency := sheet.Group.Currency
	names := make(map[string]string, len(sheet.Members))
	for _, m := range sheet.Members {
		names[m.ID] = m.Username
	}

	balances := make([]MemberBalance, 0, len(sheet.Balances))
	for id, mb := range sheet.Balances {
		balances = append(balances, MemberBalance{
			UserID:   id,
			Username: names[id],
			Owed:     ledger.FormatAmount(mb.Owed, currency),
			Owes:     ledger.FormatAmount(mb.Owes, currency),
			Net:      ledger.FormatAmount(mb.Net, currency),
			Details:  formatAmounts(mb.Details, currency),
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Username < balances[j].Username
	})

	return &GroupBalancesResponse{
		GroupID:  sheet.Group.ID,
		Currency: currency,
		Balances: balances,
		Payments: paymentMsgs(sheet.Payments, currency),
	}
}

func paymentMsgs(edges []calculator.DebtEdge, currency string) []Payment {
	out := make([]Payment, len(edges))
	for i, e := range edges {
		out[i] = Payment{From: e.From, To: e.To, Amount: ledger.FormatAmount(e.Amount, currency)}
	}
	return out
}
