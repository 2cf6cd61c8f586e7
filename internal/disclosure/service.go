// Package disclosure implements the contact-reveal flow: masked
// previews, single-use time-boxed reveal tokens, and the atomic
// redemption that turns a token into an unredacted number exactly once.
package disclosure

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/queue"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// TokenTTL bounds the life of a reveal token. A token that is not
// redeemed within this window dies on its own; there is no cleanup
// beyond the expiry check at redemption time.
const TokenTTL = 24 * time.Hour

// MatchStore reads match rows so the service can authorize the caller
// and gate issuance on the active status.
type MatchStore interface {
	Get(ctx context.Context, id uint64) (*model.Match, *model.CompletionStatus, error)
}

// TokenStore is the persistence collaborator for reveal tokens.
// Redeem must be atomic with respect to concurrent redemptions of the
// same token: exactly one caller ever succeeds. Redemption is bound to
// the match the token was issued for; presenting it under any other
// match must refuse without consuming it.
type TokenStore interface {
	Create(ctx context.Context, t *model.RevealToken) error
	Redeem(ctx context.Context, matchID uint64, token string) (*model.RevealToken, error)
	HasRevealed(ctx context.Context, matchID, userID uint64) (bool, error)
}

// PhoneStore resolves a party's raw contact number.
type PhoneStore interface {
	GetPhone(ctx context.Context, userID uint64) (string, error)
}

// Publisher carries the audit event emitted after a successful reveal.
type Publisher interface {
	PublishMatchEvent(ctx context.Context, ev queue.MatchEvent) error
}

// MaskedNumber is the pre-reveal view of the counterparty's contact
// number: a redacted rendering plus whether this caller already
// completed a reveal for the match.
type MaskedNumber struct {
	MaskedNumber string `json:"masked_number"`
	Revealed     bool   `json:"revealed"`
}

// IssuedToken is what GenerateToken returns to the caller. Clients
// should reuse an unexpired token rather than regenerate; issuance is
// deliberately not idempotent.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service implements the disclosure flow.
type Service struct {
	matches MatchStore
	tokens  TokenStore
	phones  PhoneStore
	events  Publisher
}

// NewService constructs a Service. The events publisher may be nil when
// reveal auditing is not wired (tests).
func NewService(matches MatchStore, tokens TokenStore, phones PhoneStore, events Publisher) *Service {
	if matches == nil || tokens == nil || phones == nil {
		panic("nil dependency passed to disclosure.NewService")
	}
	return &Service{matches: matches, tokens: tokens, phones: phones, events: events}
}

// activeMatchFor loads the match and enforces the two gates every
// disclosure operation shares: the caller must be a party, and the
// match must still be active.
func (s *Service) activeMatchFor(ctx context.Context, matchID, actorID uint64) (*model.Match, error) {
	m, _, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, repository.ErrNotAuthorized
	}
	if m.Status != model.StatusActive {
		return nil, repository.ErrInvalidState
	}
	return m, nil
}

// GetMaskedNumber returns the redacted counterparty number plus a flag
// telling the caller whether they already revealed it for this match.
func (s *Service) GetMaskedNumber(ctx context.Context, matchID, actorID uint64) (*MaskedNumber, error) {
	m, err := s.activeMatchFor(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}
	phone, err := s.phones.GetPhone(ctx, m.Counterparty(actorID))
	if err != nil {
		return nil, err
	}
	revealed, err := s.tokens.HasRevealed(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}
	return &MaskedNumber{MaskedNumber: MaskPhone(phone), Revealed: revealed}, nil
}

// GenerateToken issues a fresh single-use reveal token bound to
// (match, actor) that expires TokenTTL from now. Repeated calls issue
// independent tokens; earlier unexpired tokens stay valid.
func (s *Service) GenerateToken(ctx context.Context, matchID, actorID uint64) (*IssuedToken, error) {
	if _, err := s.activeMatchFor(ctx, matchID, actorID); err != nil {
		return nil, err
	}
	raw, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	t := &model.RevealToken{
		Token:     raw,
		MatchID:   matchID,
		IssuedTo:  actorID,
		ExpiresAt: time.Now().UTC().Add(TokenTTL),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, err
	}
	return &IssuedToken{Token: t.Token, ExpiresAt: t.ExpiresAt}, nil
}

// Reveal redeems a token and returns the unredacted counterparty
// number. The redemption check-and-set is a single atomic operation in
// the store, so among N concurrent calls with the same token exactly
// one succeeds; the rest see ErrTokenAlreadyUsed. A token presented
// under a different match than it was issued for reads as unknown and
// stays unspent, so the holder can still redeem it where it belongs.
func (s *Service) Reveal(ctx context.Context, matchID uint64, token string) (string, error) {
	rec, err := s.tokens.Redeem(ctx, matchID, token)
	if err != nil {
		return "", err
	}
	m, _, err := s.matches.Get(ctx, rec.MatchID)
	if err != nil {
		return "", err
	}
	phone, err := s.phones.GetPhone(ctx, m.Counterparty(rec.IssuedTo))
	if err != nil {
		return "", err
	}

	// Audit trail: the counterparty learns their number was revealed.
	if s.events != nil {
		ev := queue.MatchEvent{
			EventID:    uuid.New().String(),
			Type:       queue.EventPhoneRevealed,
			MatchID:    rec.MatchID,
			ActorID:    rec.IssuedTo,
			Recipients: []uint64{m.Counterparty(rec.IssuedTo)},
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishMatchEvent(ctx, ev); err != nil {
			log.Printf("disclosure: publish reveal event for match %d failed: %v", rec.MatchID, err)
		}
	}
	return phone, nil
}

// randomToken generates a random hexadecimal string of n bytes (2n hex
// characters) using crypto/rand.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
