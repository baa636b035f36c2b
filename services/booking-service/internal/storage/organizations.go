package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type OrganizationRepository struct {
	conn db.Conn
}

func NewOrganizationRepository(conn db.Conn) *OrganizationRepository {
	return &OrganizationRepository{conn: conn}
}

const organizationColumns = `id::text, name, owner_id, created_at, updated_at`

func scanOrganization(row pgx.Row) (domain.Organization, error) {
	var o domain.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Organization{}, mapErr(err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = utcPtr(o.UpdatedAt)
	return o, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, o domain.Organization) (domain.Organization, error) {
	o.ID = newID(o.ID)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO organizations (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, o.ID, o.Name, o.OwnerID, o.CreatedAt)
	if err != nil {
		return domain.Organization{}, mapErr(err)
	}
	o.Schedules = nil
	return o, nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (domain.Organization, error) {
	if !validID(id) {
		return domain.Organization{}, domain.ErrNoRecord
	}
	return scanOrganization(r.conn.QueryRow(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		WHERE id = $1
	`, id))
}

func (r *OrganizationRepository) FindByName(ctx context.Context, name string) (domain.Organization, error) {
	return scanOrganization(r.conn.QueryRow(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		WHERE name = $1
	`, name))
}

func (r *OrganizationRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Organization, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		WHERE owner_id = $1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *OrganizationRepository) Save(ctx context.Context, o domain.Organization) error {
	if !validID(o.ID) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `
		UPDATE organizations
		SET name = $2,
			updated_at = $3
		WHERE id = $1
	`, o.ID, o.Name, o.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

// Delete relies on ON DELETE CASCADE for the organization's schedule rows.
func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *OrganizationRepository) HasDependents(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	var has bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM services WHERE organization_id = $1)
			OR EXISTS (SELECT 1 FROM spaces WHERE organization_id = $1)
			OR EXISTS (SELECT 1 FROM customers WHERE organization_id = $1)
			OR EXISTS (SELECT 1 FROM appointments WHERE organization_id = $1)
	`, id).Scan(&has)
	return has, err
}
