package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type SpaceRepository struct {
	conn db.Conn
}

func NewSpaceRepository(conn db.Conn) *SpaceRepository {
	return &SpaceRepository{conn: conn}
}

const spaceColumns = `id::text, organization_id::text, name, description, created_at, updated_at`

func scanSpace(row pgx.Row) (domain.Space, error) {
	var s domain.Space
	if err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.Space{}, mapErr(err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = utcPtr(s.UpdatedAt)
	return s, nil
}

func (r *SpaceRepository) Create(ctx context.Context, s domain.Space) (domain.Space, error) {
	s.ID = newID(s.ID)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO spaces (id, organization_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.OrganizationID, s.Name, s.Description, s.CreatedAt)
	if err != nil {
		return domain.Space{}, mapErr(err)
	}
	return s, nil
}

func (r *SpaceRepository) FindByID(ctx context.Context, id string) (domain.Space, error) {
	if !validID(id) {
		return domain.Space{}, domain.ErrNoRecord
	}
	return scanSpace(r.conn.QueryRow(ctx, `
		SELECT `+spaceColumns+`
		FROM spaces
		WHERE id = $1
	`, id))
}

func (r *SpaceRepository) FindByName(ctx context.Context, orgID, name string) (domain.Space, error) {
	if !validID(orgID) {
		return domain.Space{}, domain.ErrNoRecord
	}
	return scanSpace(r.conn.QueryRow(ctx, `
		SELECT `+spaceColumns+`
		FROM spaces
		WHERE organization_id = $1 AND name = $2
	`, orgID, name))
}

func (r *SpaceRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Space, error) {
	if !validID(orgID) {
		return []domain.Space{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+spaceColumns+`
		FROM spaces
		WHERE organization_id = $1
		ORDER BY name ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Space{}
	for rows.Next() {
		s, err := scanSpace(rows)
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

func (r *SpaceRepository) Save(ctx context.Context, s domain.Space) error {
	if !validID(s.ID) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `
		UPDATE spaces
		SET name = $2,
			description = $3,
			updated_at = $4
		WHERE id = $1
	`, s.ID, s.Name, s.Description, s.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *SpaceRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}
