package ledger

import (
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// Settle moves an unsettled split to settled and stamps the time.
// Both fields change together or not at all.
func Settle(split *models.ExpenseSplit, now time.Time) error {
	if split.IsSettled {
		return validationf("split is already settled")
	}
	at := now.UTC()
	split.IsSettled = true
	split.SettledAt = &at
	return nil
}

// Unsettle reverses a settlement and clears the timestamp.
func Unsettle(split *models.ExpenseSplit) error {
	if !split.IsSettled {
		return validationf("split is not settled")
	}
	split.IsSettled = false
	split.SettledAt = nil
	return nil
}
