// Package review derives who may rate whom. Nothing here is stored
// state: the gate is recomputed from the match's completion status and
// the existing reviews every time it is consulted, and the insert path
// re-derives it once more inside the store so a stale client flag can
// never create an ineligible review.
package review

import (
	"context"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// MatchStore reads match rows for authorization and completion state.
type MatchStore interface {
	Get(ctx context.Context, id uint64) (*model.Match, *model.CompletionStatus, error)
}

// ReviewStore is the persistence collaborator for reviews.
// CreateChecked must re-verify eligibility atomically with the insert.
type ReviewStore interface {
	ListByMatch(ctx context.Context, matchID uint64) ([]model.ReviewRecord, error)
	CreateChecked(ctx context.Context, rec *model.ReviewRecord) error
	DeleteByAuthor(ctx context.Context, reviewID, reviewerID uint64) error
}

// Input carries the caller-provided fields of a new review.
type Input struct {
	Overall       uint8  `json:"overall_rating"`
	Quality       *uint8 `json:"quality,omitempty"`
	Communication *uint8 `json:"communication,omitempty"`
	Timeliness    *uint8 `json:"timeliness,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

func validRating(v uint8) bool { return v >= 1 && v <= 5 }

// Validate checks rating ranges before anything touches the store.
func (in *Input) Validate() error {
	if !validRating(in.Overall) {
		return repository.ErrInvalidState
	}
	for _, sub := range []*uint8{in.Quality, in.Communication, in.Timeliness} {
		if sub != nil && !validRating(*sub) {
			return repository.ErrInvalidState
		}
	}
	return nil
}

// CanLeaveReview is the gate predicate: the match must be completed and
// the actor must not have reviewed it yet.
func CanLeaveReview(actorID uint64, cs *model.CompletionStatus, existing []model.ReviewRecord) bool {
	if cs == nil || !cs.IsCompleted {
		return false
	}
	for _, r := range existing {
		if r.ReviewerID == actorID {
			return false
		}
	}
	return true
}

// Gate exposes review-status reads and the write path that re-checks
// the predicate server-side.
type Gate struct {
	matches MatchStore
	reviews ReviewStore
}

// NewGate constructs a Gate. Both dependencies must be non-nil.
func NewGate(matches MatchStore, reviews ReviewStore) *Gate {
	if matches == nil || reviews == nil {
		panic("nil dependency passed to review.NewGate")
	}
	return &Gate{matches: matches, reviews: reviews}
}

// GetReviewStatus returns the per-match review bookkeeping for one of
// its parties, including whether the caller may still submit a review.
func (g *Gate) GetReviewStatus(ctx context.Context, matchID, actorID uint64) (*model.ReviewStatus, error) {
	m, cs, err := g.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, repository.ErrNotAuthorized
	}
	existing, err := g.reviews.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	st := &model.ReviewStatus{
		MatchID:        matchID,
		IsCompleted:    cs.IsCompleted,
		CanLeaveReview: CanLeaveReview(actorID, cs, existing),
	}
	for _, r := range existing {
		switch r.ReviewerID {
		case m.ClientID:
			st.ClientReviewed = true
		case m.ProfessionalID:
			st.ProfessionalReviewed = true
		}
	}
	return st, nil
}

// CreateReview submits a rating of the counterparty. The gate predicate
// is checked here for a precise error, then re-derived atomically by
// the store at insert time.
func (g *Gate) CreateReview(ctx context.Context, matchID, actorID uint64, in Input) (*model.ReviewRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, cs, err := g.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, repository.ErrNotAuthorized
	}
	existing, err := g.reviews.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !CanLeaveReview(actorID, cs, existing) {
		if cs.IsCompleted {
			return nil, repository.ErrAlreadyReviewed
		}
		return nil, repository.ErrInvalidState
	}
	rec := &model.ReviewRecord{
		MatchID:       matchID,
		ReviewerID:    actorID,
		RevieweeID:    m.Counterparty(actorID),
		Overall:       in.Overall,
		Quality:       in.Quality,
		Communication: in.Communication,
		Timeliness:    in.Timeliness,
		Comment:       in.Comment,
	}
	if err := g.reviews.CreateChecked(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteReview removes a review its author no longer stands behind.
func (g *Gate) DeleteReview(ctx context.Context, reviewID, actorID uint64) error {
	return g.reviews.DeleteByAuthor(ctx, reviewID, actorID)
}
