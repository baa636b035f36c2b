package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

// AppointmentUnit commits appointment rows and their outbox events in one
// transaction.
type AppointmentUnit struct {
	conn   db.Conn
	events *outbox.Repository
}

func NewAppointmentUnit(conn db.Conn, events *outbox.Repository) *AppointmentUnit {
	return &AppointmentUnit{conn: conn, events: events}
}

func (u *AppointmentUnit) Run(ctx context.Context, fn func(appointment.Tx) error) error {
	return mapErr(db.WithTx(ctx, u.conn, func(tx pgx.Tx) error {
		return fn(appointment.Tx{
			Appointments: NewAppointmentRepository(tx),
			Events:       u.events.Bind(tx),
			Atomic:       true,
		})
	}))
}
