package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type ScheduleRepository struct {
	conn db.Conn
}

func NewScheduleRepository(conn db.Conn) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

const scheduleColumns = `id::text, organization_id::text, weekday, start_minute, end_minute, created_at, updated_at`

func scanSchedule(row pgx.Row) (domain.Schedule, error) {
	var s domain.Schedule
	if err := row.Scan(&s.ID, &s.OrganizationID, &s.Weekday, &s.StartMinute, &s.EndMinute, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.Schedule{}, mapErr(err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = utcPtr(s.UpdatedAt)
	return s, nil
}

func (r *ScheduleRepository) CreateBatch(ctx context.Context, schedules []domain.Schedule) ([]domain.Schedule, error) {
	out := make([]domain.Schedule, len(schedules))
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		for i, s := range schedules {
			s.ID = newID(s.ID)
			if _, err := tx.Exec(ctx, `
				INSERT INTO schedules (id, organization_id, weekday, start_minute, end_minute, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, s.ID, s.OrganizationID, s.Weekday, s.StartMinute, s.EndMinute, s.CreatedAt); err != nil {
				return err
			}
			out[i] = s
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (domain.Schedule, error) {
	if !validID(id) {
		return domain.Schedule{}, domain.ErrNoRecord
	}
	return scanSchedule(r.conn.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE id = $1
	`, id))
}

func (r *ScheduleRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Schedule, error) {
	if !validID(orgID) {
		return []domain.Schedule{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE organization_id = $1
		ORDER BY weekday ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// SaveBatch rewrites rows in one transaction. The weekday constraint is
// deferred, so days may be swapped within a batch.
func (r *ScheduleRepository) SaveBatch(ctx context.Context, schedules []domain.Schedule) error {
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		for _, s := range schedules {
			if !validID(s.ID) {
				return domain.ErrNoRecord
			}
			tag, err := tx.Exec(ctx, `
				UPDATE schedules
				SET weekday = $2,
					start_minute = $3,
					end_minute = $4,
					updated_at = $5
				WHERE id = $1
			`, s.ID, s.Weekday, s.StartMinute, s.EndMinute, s.UpdatedAt)
			if err != nil {
				return err
			}
			if err := affected(tag); err != nil {
				return err
			}
		}
		return nil
	})
	return mapErr(err)
}

func (r *ScheduleRepository) DeleteByOrganization(ctx context.Context, orgID string) (int, error) {
	if !validID(orgID) {
		return 0, nil
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM schedules WHERE organization_id = $1`, orgID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
