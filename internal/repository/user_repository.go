package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// UserRepo reads user records. Account creation and authentication are
// owned by the identity service; this service only resolves display
// names and the contact number the disclosure flow operates on.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID returns the user or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, full_name, phone, is_active, created_at FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.FullName, &u.Phone, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetPhone returns the raw contact number of a user.
func (r *UserRepo) GetPhone(ctx context.Context, id uint64) (string, error) {
	var phone string
	err := r.DB.QueryRowContext(ctx,
		`SELECT phone FROM users WHERE id = ? LIMIT 1`, id).Scan(&phone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return phone, err
}
