// Package ledger implements the expense ledger: equal-split expense entries,
// split settlement, group membership and balance views.
//
// Every operation runs in one storage transaction and returns errors that
// match one of ErrValidation, ErrUnauthorized, ErrNotFound or ErrStorage.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Recorder receives ledger events, typically for metrics.
type Recorder interface {
	ExpenseCreated(currency string, amount decimal.Decimal)
	SplitSettled()
	SplitUnsettled()
}

type nopRecorder struct{}

func (nopRecorder) ExpenseCreated(string, decimal.Decimal) {}
func (nopRecorder) SplitSettled()                          {}
func (nopRecorder) SplitUnsettled()                        {}

// Ledger runs domain operations against a storage backend.
type Ledger struct {
	store    storage.Store
	now      func() time.Time
	newID    func() string
	recorder Recorder
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

// New creates a Ledger on top of store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// inTx runs fn in a transaction and classifies whatever error comes out.
func (l *Ledger) inTx(ctx context.Context, fn func(q storage.Queries) error) error {
	return classify(l.store.RunInTx(ctx, fn))
}

func loadGroup(ctx context.Context, q storage.Queries, groupID string) (*models.Group, error) {
	group, err := q.GetGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	return group, nil
}

// requireMember returns ErrUnauthorized unless userID belongs to the group.
func requireMember(ctx context.Context, q storage.Queries, groupID, userID string) error {
	ok, err := q.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return unauthorizedf("user is not a member of this group")
	}
	return nil
}

// requireCreator returns ErrUnauthorized unless actorID created the group.
func requireCreator(group *models.Group, actorID string) error {
	if group.CreatorID != actorID {
		return unauthorizedf("only the group creator can do this")
	}
	return nil
}

// memberSet returns the group's current member IDs as a set.
func memberSet(ctx context.Context, q storage.Queries, groupID string) (map[string]bool, error) {
	members, err := q.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m.ID] = true
	}
	return set, nil
}
