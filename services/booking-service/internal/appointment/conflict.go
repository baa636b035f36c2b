package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

// ConflictChecker decides whether a space is free at an instant. Two
// appointments conflict only when their instants are equal; durations are
// not compared.
type ConflictChecker struct {
	appointments domain.AppointmentRepository
}

func NewConflictChecker(appointments domain.AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{appointments: appointments}
}

// IsAvailable reports whether no open appointment of orgID occupies spaceID
// at instant. excludeID, when set, is ignored so an appointment never
// conflicts with itself.
func (c *ConflictChecker) IsAvailable(ctx context.Context, orgID, spaceID string, instant time.Time, excludeID string) (bool, error) {
	same, err := c.appointments.FindByOrganizationAndDate(ctx, orgID, instant.UTC())
	if err != nil {
		return false, fmt.Errorf("find appointments at %s: %w", instant.UTC().Format(time.RFC3339), err)
	}
	for _, a := range same {
		if a.SpaceID != spaceID || a.ID == excludeID || a.Status == domain.StatusCanceled {
			continue
		}
		return false, nil
	}
	return true, nil
}
