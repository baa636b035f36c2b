package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type CustomerRepository struct {
	conn db.Conn
}

func NewCustomerRepository(conn db.Conn) *CustomerRepository {
	return &CustomerRepository{conn: conn}
}

const customerColumns = `id::text, organization_id::text, name, phone, created_at, updated_at`

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Customer{}, mapErr(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = utcPtr(c.UpdatedAt)
	return c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	c.ID = newID(c.ID)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO customers (id, organization_id, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.OrganizationID, c.Name, c.Phone, c.CreatedAt)
	if err != nil {
		return domain.Customer{}, mapErr(err)
	}
	return c, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	if !validID(id) {
		return domain.Customer{}, domain.ErrNoRecord
	}
	return scanCustomer(r.conn.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE id = $1
	`, id))
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, orgID, phone string) (domain.Customer, error) {
	if !validID(orgID) {
		return domain.Customer{}, domain.ErrNoRecord
	}
	return scanCustomer(r.conn.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE organization_id = $1 AND phone = $2
	`, orgID, phone))
}

func (r *CustomerRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Customer, error) {
	if !validID(orgID) {
		return []domain.Customer{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE organization_id = $1
		ORDER BY name ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CustomerRepository) Save(ctx context.Context, c domain.Customer) error {
	if !validID(c.ID) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `
		UPDATE customers
		SET name = $2,
			phone = $3,
			updated_at = $4
		WHERE id = $1
	`, c.ID, c.Name, c.Phone, c.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNoRecord
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(tag)
}
