package service

import "github.com/shopspring/decimal"

// Request and response messages. Amounts in requests accept a JSON number or
// string; amounts in responses are strings with the currency's precision.

// User is the public view of an account. Email is only set for the caller.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Group struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	CreatorID      string `json:"creator_id"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	CreatedAt      string `json:"created_at"`
}

type Split struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	IsSettled bool   `json:"is_settled"`
	SettledAt string `json:"settled_at,omitempty"`
}

type Expense struct {
	ID             string  `json:"id"`
	GroupID        string  `json:"group_id"`
	PayerID        string  `json:"payer_id"`
	Description    string  `json:"description"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currency_symbol"`
	Splits         []Split `json:"splits"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// SuccessResponse is returned by operations that have nothing else to say.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Auth

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LogoutRequest struct{}

type GetCurrentUserRequest struct{}

type UserResponse struct {
	User User `json:"user"`
}

type SearchUsersRequest struct {
	Query string `json:"query" validate:"max=64"`
}

type SearchUsersResponse struct {
	Users []User `json:"users"`
}

// Groups

type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// GroupViewResponse is the group page: members, expenses with nested splits
// and the net outstanding balance per member.
type GroupViewResponse struct {
	Group    Group             `json:"group"`
	Members  []User            `json:"members"`
	Expenses []Expense         `json:"expenses"`
	Balances map[string]string `json:"balances"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type RenameGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type MemberBalance struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Owed     string `json:"owed"`
	Owes     string `json:"owes"`
	Net      string `json:"net"`

	// Details maps another member's ID to the outstanding amount between
	// them: positive when they owe this member.
	Details map[string]string `json:"details"`
}

type Payment struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type GroupBalancesResponse struct {
	GroupID  string          `json:"group_id"`
	Currency string          `json:"currency"`
	Balances []MemberBalance `json:"balances"`
	Payments []Payment       `json:"payments"`
}

// Expenses

type CreateExpenseRequest struct {
	GroupID     string          `json:"group_id" validate:"required"`
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
	SplitWith   []string        `json:"split_with"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type UpdateExpenseRequest struct {
	ExpenseID   string           `json:"expense_id" validate:"required"`
	Description *string          `json:"description" validate:"omitempty,max=200"`
	Amount      *decimal.Decimal `json:"amount"`
}

type UpdateSplitsRequest struct {
	ExpenseID string   `json:"expense_id" validate:"required"`
	SplitWith []string `json:"split_with"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type SettleSplitRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id" validate:"required"`
}

type UnsettleSplitRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id" validate:"required"`

	// UserID selects whose split to reverse. Empty means the caller's.
	UserID string `json:"user_id"`
}

type SettleSplitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Split   Split  `json:"split"`
}

// Balances

type GetPairwiseBalanceRequest struct {
	// UserID is the counterparty.
	UserID  string `json:"user_id" validate:"required"`
	GroupID string `json:"group_id"`
}

// PairwiseBalanceResponse: positive Amount means the counterparty owes the caller.
type PairwiseBalanceResponse struct {
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id,omitempty"`
	Amount  string `json:"amount"`
}

type GetUserGroupBalanceRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// UserGroupBalanceResponse carries the caller's total stake (paid minus own
// shares, settled or not) and the unsettled net.
type UserGroupBalanceResponse struct {
	GroupID     string `json:"group_id"`
	Currency    string `json:"currency"`
	Stake       string `json:"stake"`
	Outstanding string `json:"outstanding"`
}

type GetDashboardRequest struct{}

type DashboardGroup struct {
	Group Group `json:"group"`

	// Stake is paid minus own shares, regardless of settlement.
	Stake string `json:"stake"`

	// Outstanding is the unsettled net: positive when others owe the caller.
	Outstanding string `json:"outstanding"`
}

type DashboardBalance struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`

	// Amount is positive when the other user owes the caller.
	Amount string `json:"amount"`
}

type DashboardResponse struct {
	User           User               `json:"user"`
	Groups         []DashboardGroup   `json:"groups"`
	Balances       []DashboardBalance `json:"balances"`
	TotalOwed      map[string]string  `json:"total_owed"`
	TotalOwes      map[string]string  `json:"total_owes"`
	RecentExpenses []Expense          `json:"recent_expenses"`
}
