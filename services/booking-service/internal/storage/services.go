package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ServiceRepository struct {
	conn db.Conn
}

func NewServiceRepository(conn db.Conn) *ServiceRepository {
	return &ServiceRepository{conn: conn}
}

const serviceColumns = `id::text, organization_id::text, name, description, price::text, duration_minutes, observations, created_at, updated_at`

func scanService(row pgx.Row) (domain.Service, error) {
	var (
		s     domain.Service
		price string
	)
	if err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &price, &s.DurationMinutes, &s.Observations, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.Service{}, mapErr(err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Service{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	s.Price = p
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = utcPtr(s.UpdatedAt)
	return s, nil
}

func (r *ServiceRepository) Create(ctx context.Context, s domain.Service) (domain.Service, error) {
	s.ID = newID(s.ID)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO services (id, organization_id, name, description, price, duration_minutes, observations, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
	`, s.ID, s.OrganizationID, s.Name, s.Description, s.Price.String(), s.DurationMinutes, s.Observations, s.CreatedAt)
	if err != nil {
		return domain.Service{}, mapErr(err)
	}
	return s, nil
}

func (r *ServiceRepository) FindByID(ctx context.Context, id string) (domain.Service, error) {
	if !validID(id) {
		return domain.Service{}, domain.ErrNoRecord
	}
	return scanService(r.conn.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id))
}

func (r *ServiceRepository) FindByName(ctx context.Context, orgID, name string) (domain.Service, error) {
	if !validID(orgID) {
		return domain.Service{}, domain.ErrNoRecord
	}
	return scanService(r.conn.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE organization_id = $1 AND name = $2
	`, orgID, name))
}

func (r *ServiceRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Service, error) {
	if !validID(orgID) {
		return []domain.Service{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE organization_id = $1
		ORDER BY name ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Service{}
	for rows.Next() {
		s, err := scanService(rows)
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

func (r *ServiceRepository) Save(ctx context.Context, s domain.Service) error {
	if !validID(s.ID) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `
		UPDATE services
		SET name = $2,
			description = $3,
			price = $4::numeric,
			duration_minutes = $5,
			observations = $6,
			updated_at = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Description, s.Price.String(), s.DurationMinutes, s.Observations, s.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}
