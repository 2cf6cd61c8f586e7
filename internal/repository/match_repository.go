package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// MatchRepo provides data access to the matches table, including the
// completion-protocol columns that live alongside the match row.  All
// lifecycle mutations are conditional UPDATEs whose WHERE clause
// re-states the state-machine precondition; zero rows affected is the
// signal that another writer got there first (or that the precondition
// never held).  Timestamps are compared in UTC throughout.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo returns a new MatchRepo bound to the provided database.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *MatchRepo) DB() *sql.DB { return r.db }

const matchColumns = `id, client_id, professional_id, status,
       quoted_price_cents, delivery_days, proposal_message,
       completion_requested_by, completion_request_comment,
       is_completed, completed_at, created_at, updated_at`

type matchRow struct {
	m           model.Match
	cs          model.CompletionStatus
	requestedBy sql.NullInt64
	comment     sql.NullString
	completedAt sql.NullTime
}

func scanMatch(scan func(dest ...any) error) (*model.Match, *model.CompletionStatus, error) {
	var row matchRow
	err := scan(
		&row.m.ID, &row.m.ClientID, &row.m.ProfessionalID, &row.m.Status,
		&row.m.Proposal.QuotedPriceCents, &row.m.Proposal.DeliveryDays, &row.m.Proposal.Message,
		&row.requestedBy, &row.comment,
		&row.cs.IsCompleted, &row.completedAt, &row.m.CreatedAt, &row.m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	row.cs.MatchID = row.m.ID
	if row.requestedBy.Valid {
		row.cs.RequestedBy = uint64(row.requestedBy.Int64)
	}
	if row.comment.Valid {
		row.cs.RequestComment = row.comment.String
	}
	if row.completedAt.Valid {
		t := row.completedAt.Time
		row.cs.CompletedAt = &t
	}
	return &row.m, &row.cs, nil
}

// Get returns a match together with its completion status, or
// ErrNotFound when no such match exists.
func (r *MatchRepo) Get(ctx context.Context, id uint64) (*model.Match, *model.CompletionStatus, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	return scanMatch(row.Scan)
}

// GetForUpdateTx loads a match inside tx with a row lock so that the
// completion protocol is serialized per match across processes.
func (r *MatchRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Match, *model.CompletionStatus, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ? FOR UPDATE`, id)
	return scanMatch(row.Scan)
}

// ListByParty returns all matches in which userID participates as
// either client or professional, newest first.
func (r *MatchRepo) ListByParty(ctx context.Context, userID uint64) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE client_id = ? OR professional_id = ?
		 ORDER BY created_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []model.Match
	for rows.Next() {
		m, _, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// SetCompletionRequestedTx records that actorID asked to finalize the
// match.  The WHERE clause enforces the protocol precondition: the
// match must still be active with no pending request.  Zero rows
// affected surfaces as ErrInvalidState.
func (r *MatchRepo) SetCompletionRequestedTx(ctx context.Context, tx *sql.Tx, matchID, actorID uint64, comment string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE matches
		 SET completion_requested_by = ?, completion_request_comment = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND status = 'active' AND completion_requested_by IS NULL AND is_completed = 0`,
		actorID, comment, matchID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrInvalidState)
}

// MarkCompletedTx flips is_completed and transitions the match to
// completed.  The precondition (pending request, still active, not yet
// completed) is re-stated in SQL so the transition can only happen once.
func (r *MatchRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, matchID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE matches
		 SET status = 'completed', is_completed = 1, completed_at = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND status = 'active' AND completion_requested_by IS NOT NULL AND is_completed = 0`,
		matchID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrInvalidState)
}

// UpdateStatusTx applies a terminal transition (disputed, cancelled or
// unsuccessful) from active.  A match that already left active cannot
// move again; zero rows affected surfaces as ErrAlreadyFinalized.
func (r *MatchRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, matchID uint64, status model.MatchStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND status = 'active' AND is_completed = 0`,
		string(status), matchID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrAlreadyFinalized)
}

// RequestCompletion atomically records a completion request: the match
// row is locked, the precondition re-checked in SQL, and the request
// column set, all in one transaction.
func (r *MatchRepo) RequestCompletion(ctx context.Context, matchID, actorID uint64, comment string) error {
	return r.withMatchTx(ctx, matchID, func(tx *sql.Tx) error {
		return r.SetCompletionRequestedTx(ctx, tx, matchID, actorID, comment)
	})
}

// ConfirmCompletion atomically finalizes the bilateral protocol,
// flipping is_completed and moving the match to completed.
func (r *MatchRepo) ConfirmCompletion(ctx context.Context, matchID uint64) error {
	return r.withMatchTx(ctx, matchID, func(tx *sql.Tx) error {
		return r.MarkCompletedTx(ctx, tx, matchID)
	})
}

// Finalize atomically applies a terminal transition from active.
func (r *MatchRepo) Finalize(ctx context.Context, matchID uint64, status model.MatchStatus) error {
	return r.withMatchTx(ctx, matchID, func(tx *sql.Tx) error {
		return r.UpdateStatusTx(ctx, tx, matchID, status)
	})
}

// withMatchTx runs fn inside a transaction that holds the row lock for
// the match, so concurrent lifecycle writers queue up instead of racing.
func (r *MatchRepo) withMatchTx(ctx context.Context, matchID uint64, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, _, err := r.GetForUpdateTx(ctx, tx, matchID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Create inserts a match in the active state with its immutable
// proposal snapshot.  Matches are created exactly once, by the external
// proposal-acceptance flow; this method exists for that integration and
// for tests.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO matches (client_id, professional_id, status, quoted_price_cents, delivery_days, proposal_message)
		 VALUES (?, ?, 'active', ?, ?, ?)`,
		m.ClientID, m.ProfessionalID, m.Proposal.QuotedPriceCents, m.Proposal.DeliveryDays, m.Proposal.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Status = model.StatusActive
	m.CreatedAt = time.Now().UTC()
	return nil
}

// oneRowOr converts a zero-rows-affected result into the supplied
// sentinel, the signal that a conditional update lost its race or its
// precondition never held.
func oneRowOr(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
