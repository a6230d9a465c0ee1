// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - User: registered account (unique username and email, bcrypt hash)
//   - Group: named set of members with a creator and a currency
//   - Membership: association between a user and a group
//   - Expense: an amount paid by one member of a group
//   - ExpenseSplit: one member's share of an expense, settled or not
//
// # Design Principles
//
//  1. **No mutual pointers**: relationships are ID strings; group membership is
//     its own entity queried from either side (group → members, user → groups).
//  2. **Exact money**: amounts are decimal.Decimal, never float64.
//  3. **Explicit ownership**: an Expense owns its Splits; a Group owns its Expenses.
//     Deleting an owner deletes its dependents in the same transaction.
package models
