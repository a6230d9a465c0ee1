package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
)

var errInternal = errors.New("internal error")

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks the `validate` struct tags of a request message.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return connect.NewError(connect.CodeInvalidArgument,
				errors.New("invalid "+fe.Field()+": failed "+fe.Tag()+" check"))
		}
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError maps ledger errors to Connect codes. Storage failures are
// logged and hidden from the client.
func toConnectError(logger *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrUnauthorized):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		logger.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}

// currentUser returns the authenticated user ID from the context.
func currentUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
