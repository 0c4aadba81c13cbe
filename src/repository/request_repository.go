package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"session-service/src/db"
	"session-service/src/models"
)

const requestColumns = `id, customer_id, session_type, plan_code, status, mechanic_id,
       created_at, expires_at, accepted_at`

// RequestRepository handles all database operations for session requests
type RequestRepository struct {
	db *db.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(database *db.DB) *RequestRepository {
	return &RequestRepository{db: database}
}

func scanRequest(row interface{ Scan(...any) error }) (*models.SessionRequest, error) {
	var req models.SessionRequest
	err := row.Scan(
		&req.ID,
		&req.CustomerID,
		&req.SessionType,
		&req.PlanCode,
		&req.Status,
		&req.MechanicID,
		&req.CreatedAt,
		&req.ExpiresAt,
		&req.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new pending request
func (r *RequestRepository) Create(ctx context.Context, req *models.SessionRequest) error {
	query := `
		INSERT INTO session_requests
		(id, customer_id, session_type, plan_code, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetConnection().ExecContext(ctx, query,
		req.ID, req.CustomerID, req.SessionType, req.PlanCode,
		req.Status, req.CreatedAt, req.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session request: %w", err)
	}

	slog.Info("Created session request",
		"request_id", req.ID,
		"customer_id", req.CustomerID,
		"expires_at", req.ExpiresAt)

	return nil
}

// Get retrieves a request by ID
func (r *RequestRepository) Get(ctx context.Context, id string) (*models.SessionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM session_requests WHERE id = $1`

	req, err := scanRequest(r.db.GetConnection().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session request: %w", err)
	}
	return req, nil
}

// ListPending returns all pending requests, oldest first
func (r *RequestRepository) ListPending(ctx context.Context) ([]models.SessionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM session_requests
		WHERE status = $1
		ORDER BY created_at ASC`

	return r.queryRequests(ctx, query, models.RequestPending)
}

// Claim atomically binds a mechanic to a pending request. The WHERE clause is
// the compare-and-swap guard: the update applies only if the row is still
// pending and unclaimed, so concurrent claims cannot both succeed.
func (r *RequestRepository) Claim(ctx context.Context, id, mechanicID string, at time.Time) (bool, error) {
	query := `
		UPDATE session_requests
		SET status = $1, mechanic_id = $2, accepted_at = $3
		WHERE id = $4 AND status = $5 AND mechanic_id IS NULL
	`

	result, err := r.db.GetConnection().ExecContext(ctx, query,
		models.RequestAccepted, mechanicID, at, id, models.RequestPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return false, nil
	}

	slog.Info("Claimed session request",
		"request_id", id,
		"mechanic_id", mechanicID)

	return true, nil
}

// Release undoes a claim whose session creation failed
func (r *RequestRepository) Release(ctx context.Context, id string) error {
	query := `
		UPDATE session_requests
		SET status = $1, mechanic_id = NULL, accepted_at = NULL
		WHERE id = $2
	`

	result, err := r.db.GetConnection().ExecContext(ctx, query, models.RequestPending, id)
	if err != nil {
		return fmt.Errorf("failed to release request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrRequestNotFound
	}

	slog.Warn("Released claimed request back to pending", "request_id", id)
	return nil
}

// Transition conditionally updates the request status
func (r *RequestRepository) Transition(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	query := `
		UPDATE session_requests
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.GetConnection().ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ExpiredPending returns pending requests whose claim deadline has passed
func (r *RequestRepository) ExpiredPending(ctx context.Context, at time.Time) ([]models.SessionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM session_requests
		WHERE status = $1 AND expires_at <= $2
		ORDER BY created_at ASC`

	return r.queryRequests(ctx, query, models.RequestPending, at)
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]models.SessionRequest, error) {
	rows, err := r.db.GetConnection().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session requests: %w", err)
	}
	defer rows.Close()

	var out []models.SessionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session request: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session requests: %w", err)
	}
	return out, nil
}
