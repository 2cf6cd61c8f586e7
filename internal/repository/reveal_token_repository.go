package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// RevealTokenRepo persists and redeems contact-disclosure tokens.
type RevealTokenRepo struct{ DB *sql.DB }

func NewRevealTokenRepo(db *sql.DB) *RevealTokenRepo { return &RevealTokenRepo{DB: db} }

// Create inserts a fresh token row. Repeated calls for the same match
// and party are allowed; each call issues an independent token.
func (r *RevealTokenRepo) Create(ctx context.Context, t *model.RevealToken) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reveal_tokens (token, match_id, issued_to, expires_at) VALUES (?, ?, ?, ?)`,
		t.Token, t.MatchID, t.IssuedTo, t.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Redeem atomically consumes a token presented for a match. The single
// conditional UPDATE is the only mutator of used_at: among N concurrent
// redemptions of the same token exactly one affects a row, and everyone
// else falls through to the classification read below. The match
// binding is part of the condition, so a token presented under the
// wrong match is refused as unknown without spending its single use.
// Zero rows affected is classified by re-reading the row: missing or
// misbound token, already used, or expired.
func (r *RevealTokenRepo) Redeem(ctx context.Context, matchID uint64, token string) (*model.RevealToken, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reveal_tokens SET used_at = UTC_TIMESTAMP()
		 WHERE token = ? AND match_id = ? AND used_at IS NULL AND expires_at > UTC_TIMESTAMP()`,
		token, matchID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	rec, getErr := r.getByToken(ctx, token)
	if getErr != nil {
		return nil, getErr
	}
	if rec.MatchID != matchID {
		return nil, ErrNotFound
	}
	if n == 1 {
		return rec, nil
	}
	// The update matched nothing: decide why.
	if rec.UsedAt != nil && time.Now().UTC().After(rec.ExpiresAt) {
		// Used and expired can coexist; a prior successful redemption
		// wins the classification so retries of a redeemed token read
		// as "already used" rather than "expired".
		return nil, ErrTokenAlreadyUsed
	}
	if rec.UsedAt != nil {
		return nil, ErrTokenAlreadyUsed
	}
	return nil, ErrTokenExpired
}

func (r *RevealTokenRepo) getByToken(ctx context.Context, token string) (*model.RevealToken, error) {
	var (
		t      model.RevealToken
		usedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, token, match_id, issued_to, expires_at, used_at, created_at
		 FROM reveal_tokens WHERE token = ? LIMIT 1`, token).
		Scan(&t.ID, &t.Token, &t.MatchID, &t.IssuedTo, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return &t, nil
}

// HasRevealed reports whether the party has completed at least one
// reveal for the match, i.e. owns a redeemed token.
func (r *RevealTokenRepo) HasRevealed(ctx context.Context, matchID, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM reveal_tokens WHERE match_id = ? AND issued_to = ? AND used_at IS NOT NULL LIMIT 1`,
		matchID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
