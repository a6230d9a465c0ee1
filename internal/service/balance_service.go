package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewBalanceService creates a new BalanceService on top of the ledger.
func NewBalanceService(l *ledger.Ledger, logger *slog.Logger) *BalanceService {
	return &BalanceService{ledger: l, logger: logger}
}

// GetPairwiseBalance returns the outstanding balance between the caller and
// another user, in one group or across all of them. Cross-group amounts are
// summed as plain numbers and rendered with two decimals.
func (s *BalanceService) GetPairwiseBalance(ctx context.Context, req *connect.Request[GetPairwiseBalanceRequest]) (*connect.Response[PairwiseBalanceResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	amount, err := s.ledger.PairwiseBalance(ctx, userID, req.Msg.UserID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetPairwiseBalance", err)
	}

	return connect.NewResponse(&PairwiseBalanceResponse{
		UserID:  req.Msg.UserID,
		GroupID: req.Msg.GroupID,
		Amount:  ledger.FormatAmount(amount, ""),
	}), nil
}

// GetUserGroupBalance returns the caller's stake and outstanding net in a
// group.
func (s *BalanceService) GetUserGroupBalance(ctx context.Context, req *connect.Request[GetUserGroupBalanceRequest]) (*connect.Response[UserGroupBalanceResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	summary, err := s.ledger.UserGroupBalance(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetUserGroupBalance", err)
	}

	currency := summary.Group.Currency
	return connect.NewResponse(&UserGroupBalanceResponse{
		GroupID:     req.Msg.GroupID,
		Currency:    currency,
		Stake:       ledger.FormatAmount(summary.Stake, currency),
		Outstanding: ledger.FormatAmount(summary.Outstanding, currency),
	}), nil
}

// GetDashboard returns the caller's overview: groups with stake and
// outstanding amounts, balances against each counterparty, totals and
// recent expenses.
func (s *BalanceService) GetDashboard(ctx context.Context, req *connect.Request[GetDashboardRequest]) (*connect.Response[DashboardResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	dash, err := s.ledger.Dashboard(ctx, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetDashboard", err)
	}

	groups := make(map[string]*models.Group, len(dash.Groups))
	res := &DashboardResponse{
		Groups:         make([]DashboardGroup, len(dash.Groups)),
		Balances:       make([]DashboardBalance, 0, len(dash.Balances)),
		TotalOwed:      formatTotals(dash.TotalOwed),
		TotalOwes:      formatTotals(dash.TotalOwes),
		RecentExpenses: expenseMsgs(dash.RecentExpenses),
	}
	if u, ok := dash.Users[userID]; ok {
		res.User = selfUser(u)
	}

	for i, g := range dash.Groups {
		groups[g.Group.ID] = g.Group
		res.Groups[i] = DashboardGroup{
			Group:       groupMsg(g.Group),
			Stake:       ledger.FormatAmount(g.Stake, g.Group.Currency),
			Outstanding: ledger.FormatAmount(g.Outstanding, g.Group.Currency),
		}
	}

	for _, b := range dash.Balances {
		row := DashboardBalance{GroupID: b.GroupID, UserID: b.Counterparty}
		currency := ""
		if g, ok := groups[b.GroupID]; ok {
			row.GroupName = g.Name
			currency = g.Currency
		}
		if u, ok := dash.Users[b.Counterparty]; ok {
			row.Username = u.Username
		}
		row.Amount = ledger.FormatAmount(b.Amount, currency)
		res.Balances = append(res.Balances, row)
	}

	s.logger.Info("GetDashboard successful",
		"user_id", userID,
		"groups", len(res.Groups),
		"balances", len(res.Balances),
	)
	return connect.NewResponse(res), nil
}

// formatTotals renders per-currency totals in each currency's precision.
func formatTotals(totals map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(totals))
	for currency, amount := range totals {
		out[currency] = ledger.FormatAmount(amount, currency)
	}
	return out
}
