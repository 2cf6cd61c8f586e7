package model

import "time"

// ReviewRecord is one rating authored by one party about the
// counterparty for one match.  It can only be created while the
// reviewer's review gate is open (match completed, no prior review by
// the same author) and is immutable afterwards except for
// author-initiated deletion.
//
// Overall is the required 1–5 rating; the sub-ratings are optional
// dimensions stored as-is when provided.
type ReviewRecord struct {
	ID            uint64    `json:"id"`                      // reviews.id
	MatchID       uint64    `json:"match_id"`                // reviews.match_id
	ReviewerID    uint64    `json:"reviewer_id"`             // reviews.reviewer_id
	RevieweeID    uint64    `json:"reviewee_id"`             // reviews.reviewee_id
	Overall       uint8     `json:"overall_rating"`          // reviews.overall_rating
	Quality       *uint8    `json:"quality,omitempty"`       // reviews.quality_rating (nullable)
	Communication *uint8    `json:"communication,omitempty"` // reviews.communication_rating (nullable)
	Timeliness    *uint8    `json:"timeliness,omitempty"`    // reviews.timeliness_rating (nullable)
	Comment       string    `json:"comment,omitempty"`       // reviews.comment
	CreatedAt     time.Time `json:"created_at"`              // reviews.created_at
}

// ReviewStatus aggregates, for one match, which parties have reviewed
// and whether the calling party may still submit one.  It is derived
// state, never stored.
type ReviewStatus struct {
	MatchID              uint64 `json:"match_id"`
	IsCompleted          bool   `json:"is_completed"`
	ClientReviewed       bool   `json:"client_reviewed"`
	ProfessionalReviewed bool   `json:"professional_reviewed"`
	CanLeaveReview       bool   `json:"can_leave_review"` // for the calling party
}
