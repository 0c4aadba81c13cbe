package repository

import (
	"context"
	"database/sql"
	"fmt"

	"session-service/src/db"
	"session-service/src/models"
)

// MechanicRepository handles database operations for the mechanic capacity view
type MechanicRepository struct {
	db *db.DB
}

// NewMechanicRepository creates a new mechanic repository
func NewMechanicRepository(database *db.DB) *MechanicRepository {
	return &MechanicRepository{db: database}
}

// Get retrieves a mechanic by ID
func (r *MechanicRepository) Get(ctx context.Context, id string) (*models.Mechanic, error) {
	query := `
		SELECT id, name, can_accept_sessions, created_at
		FROM mechanics
		WHERE id = $1
	`

	var m models.Mechanic
	err := r.db.GetConnection().QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.CanAcceptSessions,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrMechanicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mechanic: %w", err)
	}
	return &m, nil
}

// SetAvailability updates whether the mechanic may accept sessions
func (r *MechanicRepository) SetAvailability(ctx context.Context, id string, canAccept bool) error {
	query := `
		UPDATE mechanics
		SET can_accept_sessions = $1
		WHERE id = $2
	`

	result, err := r.db.GetConnection().ExecContext(ctx, query, canAccept, id)
	if err != nil {
		return fmt.Errorf("failed to update mechanic availability: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrMechanicNotFound
	}
	return nil
}
