package model

import "time"

// RevealToken grants a single, time-boxed disclosure of the
// counterparty's contact number for one match.
//
// Fields:
//  ID        – primary key identifier.
//  Token     – opaque random value returned to the client.
//  MatchID   – match this token is bound to.
//  IssuedTo  – party the token was issued to.
//  ExpiresAt – issuance time plus the reveal TTL (24h).
//  UsedAt    – nil until the token is redeemed; set exactly once.
//  CreatedAt – creation timestamp.
type RevealToken struct {
	ID        uint64     `json:"-"`          // reveal_tokens.id
	Token     string     `json:"token"`      // reveal_tokens.token
	MatchID   uint64     `json:"match_id"`   // reveal_tokens.match_id
	IssuedTo  uint64     `json:"issued_to"`  // reveal_tokens.issued_to
	ExpiresAt time.Time  `json:"expires_at"` // reveal_tokens.expires_at
	UsedAt    *time.Time `json:"used_at"`    // reveal_tokens.used_at (nullable)
	CreatedAt time.Time  `json:"created_at"` // reveal_tokens.created_at
}
