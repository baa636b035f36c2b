package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type AppointmentRepository struct {
	conn db.Conn
}

func NewAppointmentRepository(conn db.Conn) *AppointmentRepository {
	return &AppointmentRepository{conn: conn}
}

const appointmentColumns = `id::text, organization_id::text, service_id::text, space_id::text, customer_id::text,
	date, description, observations, status, created_at, updated_at, canceled_at, finished_at`

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var (
		a      domain.Appointment
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.ServiceID,
		&a.SpaceID,
		&a.CustomerID,
		&a.Date,
		&a.Description,
		&a.Observations,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CanceledAt,
		&a.FinishedAt,
	); err != nil {
		return domain.Appointment{}, mapErr(err)
	}
	a.Status = domain.Status(status)
	a.Date = a.Date.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = utcPtr(a.UpdatedAt)
	a.CanceledAt = utcPtr(a.CanceledAt)
	a.FinishedAt = utcPtr(a.FinishedAt)
	return a, nil
}

func (r *AppointmentRepository) Create(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	a.ID = newID(a.ID)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO appointments
			(id, organization_id, service_id, space_id, customer_id, date, description, observations, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.OrganizationID, a.ServiceID, a.SpaceID, a.CustomerID, a.Date, a.Description, a.Observations, string(a.Status), a.CreatedAt)
	if err != nil {
		return domain.Appointment{}, mapErr(err)
	}
	return a, nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (domain.Appointment, error) {
	if !validID(id) {
		return domain.Appointment{}, domain.ErrNoRecord
	}
	return scanAppointment(r.conn.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
}

func (r *AppointmentRepository) FindByOrganizationAndDate(ctx context.Context, orgID string, date time.Time) ([]domain.Appointment, error) {
	return r.list(ctx, orgID, `date = $2`, date)
}

func (r *AppointmentRepository) ListByDateRange(ctx context.Context, orgID string, start, end time.Time) ([]domain.Appointment, error) {
	return r.list(ctx, orgID, `date >= $2 AND date <= $3`, start, end)
}

func (r *AppointmentRepository) ListByMonth(ctx context.Context, orgID string, year int, month time.Month) ([]domain.Appointment, error) {
	start, end := domain.MonthBounds(year, month)
	return r.list(ctx, orgID, `date >= $2 AND date < $3`, start, end)
}

func (r *AppointmentRepository) Save(ctx context.Context, a domain.Appointment) error {
	if !validID(a.ID) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `
		UPDATE appointments
		SET service_id = $2,
			space_id = $3,
			customer_id = $4,
			date = $5,
			description = $6,
			observations = $7,
			status = $8,
			updated_at = $9,
			canceled_at = $10,
			finished_at = $11
		WHERE id = $1
	`, a.ID, a.ServiceID, a.SpaceID, a.CustomerID, a.Date, a.Description, a.Observations, string(a.Status), a.UpdatedAt, a.CanceledAt, a.FinishedAt)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *AppointmentRepository) HasAppointments(ctx context.Context, filter domain.AppointmentFilter) (bool, error) {
	var (
		conds []string
		args  []any
	)
	for _, f := range []struct {
		column, value string
	}{
		{"organization_id", filter.OrganizationID},
		{"customer_id", filter.CustomerID},
		{"service_id", filter.ServiceID},
		{"space_id", filter.SpaceID},
	} {
		if f.value == "" {
			continue
		}
		if !validID(f.value) {
			return false, nil
		}
		args = append(args, f.value)
		conds = append(conds, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var has bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE `+where+`)`, args...).Scan(&has)
	return has, err
}

func (r *AppointmentRepository) list(ctx context.Context, orgID, cond string, args ...any) ([]domain.Appointment, error) {
	if !validID(orgID) {
		return []domain.Appointment{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE organization_id = $1 AND `+cond+`
		ORDER BY date ASC, id ASC
	`, append([]any{orgID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
