package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewExpenseService creates a new ExpenseService on top of the ledger.
func NewExpenseService(l *ledger.Ledger, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{ledger: l, logger: logger}
}

// CreateExpense records an expense paid by the caller and splits it equally
// among split_with.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	// The amount is printed below, so its shape is checked first.
	if err := ledger.CheckAmountShape(req.Msg.Amount); err != nil {
		return nil, toConnectError(s.logger, "CreateExpense", err)
	}
	s.logger.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"split_count", len(req.Msg.SplitWith),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	expense, err := s.ledger.CreateExpense(ctx, ledger.NewExpense{
		GroupID:     req.Msg.GroupID,
		PayerID:     userID,
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		Currency:    req.Msg.Currency,
		SplitWith:   req.Msg.SplitWith,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "CreateExpense", err)
	}

	s.logger.Info("Expense created", "expense_id", expense.ID, "splits", len(expense.Splits))
	return connect.NewResponse(&ExpenseResponse{Expense: expenseMsg(expense)}), nil
}

// GetExpense returns an expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	expense, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetExpense", err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: expenseMsg(expense)}), nil
}

// UpdateExpense edits the description and/or amount. Payer only.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if req.Msg.Amount != nil {
		if err := ledger.CheckAmountShape(*req.Msg.Amount); err != nil {
			return nil, toConnectError(s.logger, "UpdateExpense", err)
		}
	}

	expense, err := s.ledger.UpdateExpense(ctx, req.Msg.ExpenseID, userID, ledger.ExpenseUpdate{
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateExpense", err)
	}

	s.logger.Info("Expense updated", "expense_id", expense.ID)
	return connect.NewResponse(&ExpenseResponse{Expense: expenseMsg(expense)}), nil
}

// UpdateSplits re-splits an expense equally among a new set of members.
// Payer only.
func (s *ExpenseService) UpdateSplits(ctx context.Context, req *connect.Request[UpdateSplitsRequest]) (*connect.Response[ExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	expense, err := s.ledger.UpdateSplits(ctx, req.Msg.ExpenseID, userID, req.Msg.SplitWith)
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateSplits", err)
	}

	s.logger.Info("Splits updated", "expense_id", expense.ID, "splits", len(expense.Splits))
	return connect.NewResponse(&ExpenseResponse{Expense: expenseMsg(expense)}), nil
}

// DeleteExpense deletes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[SuccessResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID, userID); err != nil {
		return nil, toConnectError(s.logger, "DeleteExpense", err)
	}

	s.logger.Info("Expense deleted", "expense_id", req.Msg.ExpenseID)
	return connect.NewResponse(&SuccessResponse{Success: true, Message: "Expense has been deleted."}), nil
}

// SettleSplit marks the caller's split on an expense as paid.
func (s *ExpenseService) SettleSplit(ctx context.Context, req *connect.Request[SettleSplitRequest]) (*connect.Response[SettleSplitResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	result, err := s.ledger.SettleSplit(ctx, userID, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(s.logger, "SettleSplit", err)
	}

	currency := result.Expense.Currency
	message := fmt.Sprintf("You settled %s%s with %s!",
		ledger.Symbol(currency),
		ledger.FormatAmount(result.Split.Amount, currency),
		result.Payer.Username,
	)

	s.logger.Info("Split settled", "expense_id", result.Expense.ID, "split_id", result.Split.ID)
	return connect.NewResponse(&SettleSplitResponse{
		Success: true,
		Message: message,
		Split:   splitMsg(result.Split, currency),
	}), nil
}

// UnsettleSplit reverses a settlement. The split owner or the payer may do it.
func (s *ExpenseService) UnsettleSplit(ctx context.Context, req *connect.Request[UnsettleSplitRequest]) (*connect.Response[SettleSplitResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	result, err := s.ledger.UnsettleSplit(ctx, userID, req.Msg.GroupID, req.Msg.ExpenseID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(s.logger, "UnsettleSplit", err)
	}

	s.logger.Info("Split unsettled", "expense_id", result.Expense.ID, "split_id", result.Split.ID)
	return connect.NewResponse(&SettleSplitResponse{
		Success: true,
		Message: "Settlement reversed",
		Split:   splitMsg(result.Split, result.Expense.Currency),
	}), nil
}
