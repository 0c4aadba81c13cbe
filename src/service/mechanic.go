package service

import (
	"context"
	"fmt"
	"log/slog"

	"session-service/src/models"
	"session-service/src/store"
)

// ShiftMarker toggles the on-shift presence marker. Nil when no presence
// backend is configured.
type ShiftMarker interface {
	MarkOnShift(ctx context.Context, mechanicID string) error
	MarkOffShift(ctx context.Context, mechanicID string) error
}

// MechanicService manages mechanic availability.
type MechanicService struct {
	mechanics store.MechanicStore
	shifts    ShiftMarker
}

// NewMechanicService creates a mechanic service. shifts may be nil.
func NewMechanicService(mechanics store.MechanicStore, shifts ShiftMarker) *MechanicService {
	return &MechanicService{mechanics: mechanics, shifts: shifts}
}

// SetAvailability flips both the durable eligibility flag and the presence
// marker. Going off shift never fails on the presence side alone.
func (s *MechanicService) SetAvailability(ctx context.Context, mechanicID string, available bool) (*models.Mechanic, error) {
	if err := s.mechanics.SetAvailability(ctx, mechanicID, available); err != nil {
		return nil, err
	}

	if s.shifts != nil {
		var err error
		if available {
			err = s.shifts.MarkOnShift(ctx, mechanicID)
		} else {
			err = s.shifts.MarkOffShift(ctx, mechanicID)
		}
		if err != nil {
			if available {
				return nil, fmt.Errorf("failed to mark mechanic on shift: %w", err)
			}
			slog.Error("Failed to clear shift marker",
				"mechanic_id", mechanicID,
				"error", err)
		}
	}

	return s.mechanics.Get(ctx, mechanicID)
}
