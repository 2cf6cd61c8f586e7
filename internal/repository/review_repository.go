package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// ReviewRepo provides data access to the reviews table. The review
// gate predicate is re-derived in SQL at insert time so that a stale
// client-side "can leave review" flag can never create an ineligible
// review.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewColumns = `id, match_id, reviewer_id, reviewee_id, overall_rating,
       quality_rating, communication_rating, timeliness_rating, comment, created_at`

// ListByMatch returns all reviews for a match (at most two).
func (r *ReviewRepo) ListByMatch(ctx context.Context, matchID uint64) ([]model.ReviewRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE match_id = ? ORDER BY created_at`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

func scanReview(scan func(dest ...any) error) (*model.ReviewRecord, error) {
	var (
		rec                  model.ReviewRecord
		quality, comm, timel sql.NullInt16
		comment              sql.NullString
	)
	if err := scan(&rec.ID, &rec.MatchID, &rec.ReviewerID, &rec.RevieweeID, &rec.Overall,
		&quality, &comm, &timel, &comment, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quality.Valid {
		v := uint8(quality.Int16)
		rec.Quality = &v
	}
	if comm.Valid {
		v := uint8(comm.Int16)
		rec.Communication = &v
	}
	if timel.Valid {
		v := uint8(timel.Int16)
		rec.Timeliness = &v
	}
	if comment.Valid {
		rec.Comment = comment.String
	}
	return &rec, nil
}

// CreateChecked inserts a review only when the gate predicate still
// holds at the database: the match is completed and the reviewer is one
// of its parties. The INSERT ... SELECT re-derives the predicate in the
// same statement, so a client racing the lifecycle cannot slip an
// ineligible review in; the (match_id, reviewer_id) unique key turns a
// duplicate submission into ErrAlreadyReviewed.
func (r *ReviewRepo) CreateChecked(ctx context.Context, rec *model.ReviewRecord) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reviews (match_id, reviewer_id, reviewee_id, overall_rating,
		                      quality_rating, communication_rating, timeliness_rating, comment)
		 SELECT m.id, ?, IF(m.client_id = ?, m.professional_id, m.client_id), ?, ?, ?, ?, ?
		 FROM matches m
		 WHERE m.id = ? AND m.is_completed = 1 AND (m.client_id = ? OR m.professional_id = ?)`,
		rec.ReviewerID, rec.ReviewerID, rec.Overall,
		rec.Quality, rec.Communication, rec.Timeliness, rec.Comment,
		rec.MatchID, rec.ReviewerID, rec.ReviewerID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return ErrAlreadyReviewed
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// DeleteByAuthor removes a review, but only for the party that wrote
// it. Author-initiated deletion is the single permitted mutation of a
// review after creation.
func (r *ReviewRepo) DeleteByAuthor(ctx context.Context, reviewID, reviewerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = ? AND reviewer_id = ?`, reviewID, reviewerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the review does not exist or it belongs to someone else.
		var one int
		err = r.DB.QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE id = ? LIMIT 1`, reviewID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrNotAuthorized
	}
	return nil
}

// PendingReviewMatchIDs returns the matches that are completed but not
// yet reviewed by userID. The account-level review blocker consults
// this set before allowing new engagement requests.
func (r *ReviewRepo) PendingReviewMatchIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT m.id FROM matches m
		 WHERE m.is_completed = 1
		   AND (m.client_id = ? OR m.professional_id = ?)
		   AND NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.match_id = m.id AND rv.reviewer_id = ?)`,
		userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
