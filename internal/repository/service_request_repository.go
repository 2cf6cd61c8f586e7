package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// ServiceRequestRepo persists new engagement requests. It is the
// minimal write surface the account-level review blocker gates;
// matching and search over requests live elsewhere.
type ServiceRequestRepo struct{ DB *sql.DB }

func NewServiceRequestRepo(db *sql.DB) *ServiceRequestRepo { return &ServiceRequestRepo{DB: db} }

// Create inserts a service request and fills in its generated ID.
func (r *ServiceRequestRepo) Create(ctx context.Context, req *model.ServiceRequest) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO service_requests (client_id, title, description) VALUES (?, ?, ?)`,
		req.ClientID, req.Title, req.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.CreatedAt = time.Now().UTC()
	return nil
}
