package appointment

import (
	"context"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

// Tx is the write side of one unit of work.
type Tx struct {
	Appointments domain.AppointmentRepository
	Events       Publisher
	// Atomic is set when Events commits together with Appointments. Event
	// failures then abort the write instead of being logged.
	Atomic bool
}

// UnitOfWork runs fn and keeps its writes only when fn returns nil.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(Tx) error) error
}

// directUnit writes straight to the repository and publishes on a best
// effort basis. It backs stores without transactions.
type directUnit struct {
	tx Tx
}

func (u directUnit) Run(_ context.Context, fn func(Tx) error) error {
	return fn(u.tx)
}
