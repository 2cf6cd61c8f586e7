package review

import (
	"context"

	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// PendingStore lists the matches a user has completed but not yet
// reviewed.
type PendingStore interface {
	PendingReviewMatchIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// Blocker is the coarse account-level policy consulted at the boundary
// of unrelated "create new request" operations: while any eligible
// review is outstanding, the actor may not open new engagements
// elsewhere in the marketplace.
type Blocker struct {
	pending PendingStore
}

func NewBlocker(pending PendingStore) *Blocker {
	if pending == nil {
		panic("nil store passed to review.NewBlocker")
	}
	return &Blocker{pending: pending}
}

// OutstandingMatchIDs returns the completed-but-unreviewed matches for
// the user, for surfacing to the blocked caller.
func (b *Blocker) OutstandingMatchIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	return b.pending.PendingReviewMatchIDs(ctx, userID)
}

// Check returns repository.ErrReviewPending when the user still owes a
// review, nil otherwise.
func (b *Blocker) Check(ctx context.Context, userID uint64) error {
	ids, err := b.pending.PendingReviewMatchIDs(ctx, userID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return repository.ErrReviewPending
	}
	return nil
}
