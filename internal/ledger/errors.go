package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/storage"
)

// Error kinds returned by every Ledger operation. Callers match them with
// errors.Is; the wrapped message says what went wrong.
var (
	// ErrValidation covers bad or missing input, empty split sets, non-member
	// targets and illegal state transitions.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized means the actor is not allowed to perform the operation.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound means a referenced expense, group, user or split is missing.
	ErrNotFound = errors.New("not found")

	// ErrStorage means the transaction failed for reasons outside the caller's
	// control. Its message is not meant for clients.
	ErrStorage = errors.New("storage failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// classify maps storage errors onto the ledger taxonomy. Errors that already
// carry a ledger kind pass through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, storage.ErrInvalidEntity):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}
