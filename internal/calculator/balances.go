package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SplitShare is the part of a persisted split needed for balance calculations.
type SplitShare struct {
	UserID  string
	Amount  decimal.Decimal
	Settled bool
}

// Entry is one expense with its splits, reduced to what the balance
// calculations need.
type Entry struct {
	ExpenseID string
	GroupID   string
	PayerID   string
	Amount    decimal.Decimal
	Splits    []SplitShare
}

// MemberBalance is one member's outstanding position within a group.
type MemberBalance struct {
	UserID string

	// Owed is what other members still owe this member for expenses they paid.
	Owed decimal.Decimal

	// Owes is what this member still owes others.
	Owes decimal.Decimal

	// Net is Owed - Owes. Positive = owed money, negative = owes money.
	Net decimal.Decimal

	// Details holds the pairwise breakdown: Details[other] > 0 means other
	// owes this member, < 0 means this member owes other.
	Details map[string]decimal.Decimal
}

// DebtEdge represents a suggested payment from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// PairBalance is the outstanding balance between one user and a counterparty
// inside one group. Positive = the counterparty owes the user.
type PairBalance struct {
	GroupID      string
	Counterparty string
	Amount       decimal.Decimal
}

// outstanding reports whether a split still counts towards balances.
// Settled splits and a payer's share of their own expense never do.
func outstanding(s SplitShare, payerID string) bool {
	return !s.Settled && s.UserID != payerID
}

// PairwiseBalance returns what b owes a across unsettled splits, minus what a
// owes b. Positive means b owes a. An empty groupID covers every group.
//
// PairwiseBalance(e, a, b, g) == PairwiseBalance(e, b, a, g).Neg() always holds.
func PairwiseBalance(entries []Entry, a, b, groupID string) decimal.Decimal {
	balance := decimal.Zero
	if a == b {
		return balance
	}
	for _, e := range entries {
		if groupID != "" && e.GroupID != groupID {
			continue
		}
		if e.PayerID != a && e.PayerID != b {
			continue
		}
		for _, s := range e.Splits {
			if !outstanding(s, e.PayerID) {
				continue
			}
			switch {
			case e.PayerID == a && s.UserID == b:
				balance = balance.Add(s.Amount)
			case e.PayerID == b && s.UserID == a:
				balance = balance.Sub(s.Amount)
			}
		}
	}
	return balance
}

// GroupBalances computes the outstanding owes/owed position of every member
// and the pairwise breakdown between them.
//
// Algorithm:
//   - For each unsettled split that is not the payer's own share:
//     the split owner owes the amount, the payer is owed it
//   - Details track the same amount per pair, with opposite signs on each side
//   - Net = Owed - Owes
//
// Users that appear on splits but are no longer in memberIDs still get an
// entry so that no outstanding amount is dropped.
func GroupBalances(memberIDs []string, entries []Entry) map[string]*MemberBalance {
	balances := make(map[string]*MemberBalance, len(memberIDs))

	for _, id := range memberIDs {
		mb := &MemberBalance{UserID: id, Details: make(map[string]decimal.Decimal, len(memberIDs))}
		for _, other := range memberIDs {
			if other != id {
				mb.Details[other] = decimal.Zero
			}
		}
		balances[id] = mb
	}

	get := func(id string) *MemberBalance {
		mb, ok := balances[id]
		if !ok {
			mb = &MemberBalance{UserID: id, Details: make(map[string]decimal.Decimal)}
			balances[id] = mb
		}
		return mb
	}

	for _, e := range entries {
		for _, s := range e.Splits {
			if !outstanding(s, e.PayerID) {
				continue
			}
			ower, payer := get(s.UserID), get(e.PayerID)

			ower.Owes = ower.Owes.Add(s.Amount)
			payer.Owed = payer.Owed.Add(s.Amount)

			ower.Details[e.PayerID] = ower.Details[e.PayerID].Sub(s.Amount)
			payer.Details[s.UserID] = payer.Details[s.UserID].Add(s.Amount)
		}
	}

	for _, mb := range balances {
		mb.Net = mb.Owed.Sub(mb.Owes)
	}
	return balances
}

// UserGroupBalance returns the user's total stake in a group: everything they
// paid minus the sum of their own splits, settled or not.
//
// This is not an outstanding balance; settling a split does not change it.
func UserGroupBalance(entries []Entry, userID, groupID string) decimal.Decimal {
	paid, owed := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.GroupID != groupID {
			continue
		}
		if e.PayerID == userID {
			paid = paid.Add(e.Amount)
		}
		for _, s := range e.Splits {
			if s.UserID == userID {
				owed = owed.Add(s.Amount)
			}
		}
	}
	return paid.Sub(owed)
}

// UserBalances returns every non-zero outstanding balance between userID and
// another user, per group, sorted by group then counterparty.
func UserBalances(entries []Entry, userID string) []PairBalance {
	type key struct{ group, other string }
	sums := make(map[key]decimal.Decimal)

	for _, e := range entries {
		for _, s := range e.Splits {
			if !outstanding(s, e.PayerID) {
				continue
			}
			switch {
			case e.PayerID == userID:
				k := key{e.GroupID, s.UserID}
				sums[k] = sums[k].Add(s.Amount)
			case s.UserID == userID:
				k := key{e.GroupID, e.PayerID}
				sums[k] = sums[k].Sub(s.Amount)
			}
		}
	}

	var out []PairBalance
	for k, amount := range sums {
		if amount.IsZero() {
			continue
		}
		out = append(out, PairBalance{GroupID: k.group, Counterparty: k.other, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].Counterparty < out[j].Counterparty
	})
	return out
}

// SimplifyDebts turns net balances into a short list of suggested payments.
//
// Greedy: the largest debtor pays the largest creditor as much as either side
// allows, then moves on. Amounts are exact decimals, so every balance reaches
// zero.
func SimplifyDebts(balances map[string]*MemberBalance) []DebtEdge {
	type party struct {
		id     string
		amount decimal.Decimal
	}

	var creditors, debtors []party
	for id, mb := range balances {
		switch mb.Net.Sign() {
		case 1:
			creditors = append(creditors, party{id, mb.Net})
		case -1:
			debtors = append(debtors, party{id, mb.Net.Neg()})
		}
	}

	byAmount := func(ps []party) {
		sort.Slice(ps, func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		})
	}
	byAmount(creditors)
	byAmount(debtors)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		edges = append(edges, DebtEdge{From: d.id, To: c.id, Amount: amount})

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		if d.amount.IsZero() {
			i++
		}
		if c.amount.IsZero() {
			j++
		}
	}
	return edges
}
