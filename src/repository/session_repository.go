package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"session-service/src/db"
	"session-service/src/models"
	"session-service/src/store"
)

const sessionColumns = `id, request_id, customer_id, mechanic_id, status, plan, type,
       started_at, ended_at, scheduled_start, scheduled_end, metadata, created_at, updated_at`

// Postgres error code for unique constraint violations; the partial index
// uniq_mech_one_active turns a capacity race into this error.
const pqUniqueViolation = "23505"

// SessionRepository handles all database operations for sessions
type SessionRepository struct {
	db *db.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(database *db.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var s models.Session
	var metadata []byte
	err := row.Scan(
		&s.ID,
		&s.RequestID,
		&s.CustomerID,
		&s.MechanicID,
		&s.Status,
		&s.Plan,
		&s.Type,
		&s.StartedAt,
		&s.EndedAt,
		&s.ScheduledStart,
		&s.ScheduledEnd,
		&metadata,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode session metadata: %w", err)
		}
	}
	return &s, nil
}

// Create inserts a new session. A violation of uniq_mech_one_active means the
// mechanic already holds a non-terminal session and surfaces as
// models.ErrCapacityExceeded.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}
	if s.Metadata == nil {
		metadata = []byte(`{}`)
	}

	query := `
		INSERT INTO sessions
		(id, request_id, customer_id, mechanic_id, status, plan, type,
		 scheduled_start, scheduled_end, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.GetConnection().ExecContext(ctx, query,
		s.ID, s.RequestID, s.CustomerID, s.MechanicID, s.Status, s.Plan, s.Type,
		s.ScheduledStart, s.ScheduledEnd, metadata, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation &&
			pqErr.Constraint == "uniq_mech_one_active" {
			return models.ErrCapacityExceeded
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("Created session",
		"session_id", s.ID,
		"customer_id", s.CustomerID,
		"status", s.Status)

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.db.GetConnection().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// Transition conditionally updates the session status. The WHERE clause
// guards on the expected prior status; started_at and ended_at are stamped at
// most once, inside the same statement.
func (r *SessionRepository) Transition(ctx context.Context, id string, from, to models.SessionStatus, at time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $1,
		    updated_at = $2,
		    started_at = CASE WHEN $1 = 'live' AND started_at IS NULL THEN $2 ELSE started_at END,
		    ended_at = CASE WHEN $1 IN ('completed', 'cancelled', 'expired') AND ended_at IS NULL THEN $2 ELSE ended_at END
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.GetConnection().ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return false, nil
	}

	slog.Info("Transitioned session",
		"session_id", id,
		"from", from,
		"to", to)

	return true, nil
}

// ActiveCountByMechanic counts the mechanic's non-terminal sessions
func (r *SessionRepository) ActiveCountByMechanic(ctx context.Context, mechanicID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE mechanic_id = $1
		  AND status IN ('pending', 'waiting', 'accepted', 'live')
	`

	var count int
	if err := r.db.GetConnection().QueryRowContext(ctx, query, mechanicID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}

// ActiveByCustomer retrieves the customer's most recent non-terminal session
func (r *SessionRepository) ActiveByCustomer(ctx context.Context, customerID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE customer_id = $1
		  AND status IN ('pending', 'waiting', 'accepted', 'live')
		ORDER BY created_at DESC
		LIMIT 1`

	s, err := scanSession(r.db.GetConnection().QueryRowContext(ctx, query, customerID))
	if err == sql.ErrNoRows {
		// No active session - not an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return s, nil
}

// ListNonTerminal returns every session that may still transition
func (r *SessionRepository) ListNonTerminal(ctx context.Context) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status IN ('pending', 'waiting', 'accepted', 'live')
		ORDER BY created_at ASC`

	rows, err := r.db.GetConnection().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

// OverCapacityMechanics lists mechanics holding more than one non-terminal
// session. The unique index makes this impossible through the arbiter; a
// non-empty result means rows were mutated outside the production path.
func (r *SessionRepository) OverCapacityMechanics(ctx context.Context) ([]store.MechanicLoad, error) {
	query := `
		SELECT mechanic_id, COUNT(*) AS active
		FROM sessions
		WHERE mechanic_id IS NOT NULL
		  AND status IN ('pending', 'waiting', 'accepted', 'live')
		GROUP BY mechanic_id
		HAVING COUNT(*) > 1
		ORDER BY mechanic_id
	`

	rows, err := r.db.GetConnection().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mechanic capacity: %w", err)
	}
	defer rows.Close()

	var out []store.MechanicLoad
	for rows.Next() {
		var load store.MechanicLoad
		if err := rows.Scan(&load.MechanicID, &load.ActiveSessions); err != nil {
			return nil, fmt.Errorf("failed to scan mechanic capacity: %w", err)
		}
		out = append(out, load)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mechanic capacity: %w", err)
	}
	return out, nil
}
