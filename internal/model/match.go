package model

import "time"

// MatchStatus enumerates every state a match can be in.  The set is
// closed: a match is created directly in StatusActive by an external
// proposal-acceptance event and can only move to one of the four
// terminal states afterwards.
type MatchStatus string

const (
	StatusActive       MatchStatus = "active"
	StatusCompleted    MatchStatus = "completed"
	StatusDisputed     MatchStatus = "disputed"
	StatusCancelled    MatchStatus = "cancelled"
	StatusUnsuccessful MatchStatus = "unsuccessful"
)

// Valid reports whether s is one of the five known match statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusDisputed, StatusCancelled, StatusUnsuccessful:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.  No transition ever
// leaves a terminal state.
func (s MatchStatus) Terminal() bool {
	return s.Valid() && s != StatusActive
}

// Proposal is the immutable snapshot of the agreed terms captured when
// the match was created.  It is never mutated after creation.
//
// Fields:
//  QuotedPriceCents – agreed price in cents.
//  DeliveryDays     – promised delivery time in days.
//  Message          – free-form message attached to the accepted proposal.
type Proposal struct {
	QuotedPriceCents uint32 `json:"quoted_price_cents"` // matches.quoted_price_cents
	DeliveryDays     uint32 `json:"delivery_days"`      // matches.delivery_days
	Message          string `json:"message"`            // matches.proposal_message
}

// Match represents one accepted engagement between a client and a
// professional.  Only Status and the completion columns mutate after
// creation; the proposal snapshot is frozen.
type Match struct {
	ID             uint64      `json:"id"`              // matches.id
	ClientID       uint64      `json:"client_id"`       // matches.client_id
	ProfessionalID uint64      `json:"professional_id"` // matches.professional_id
	Status         MatchStatus `json:"status"`          // matches.status
	Proposal       Proposal    `json:"proposal"`        // immutable terms snapshot
	CreatedAt      time.Time   `json:"created_at"`      // matches.created_at
	UpdatedAt      time.Time   `json:"updated_at"`      // matches.updated_at
}

// IsParty reports whether userID is one of the two counterparties.
func (m *Match) IsParty(userID uint64) bool {
	return userID != 0 && (userID == m.ClientID || userID == m.ProfessionalID)
}

// Counterparty returns the other party of the match relative to userID.
// It returns 0 when userID is not a party.
func (m *Match) Counterparty(userID uint64) uint64 {
	switch userID {
	case m.ClientID:
		return m.ProfessionalID
	case m.ProfessionalID:
		return m.ClientID
	}
	return 0
}

// CompletionStatus tracks the bilateral completion protocol for one
// match.  RequestedBy is 0 until one party records a completion
// request.  IsCompleted flips to true exactly once, when the other
// party confirms, and is terminal.
type CompletionStatus struct {
	MatchID        uint64     `json:"match_id"`
	RequestedBy    uint64     `json:"completion_requested_by,omitempty"` // 0 = no pending request
	RequestComment string     `json:"request_comment,omitempty"`
	IsCompleted    bool       `json:"is_completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
