// Package storage implements the booking repositories on Postgres.
package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

// mapErr translates driver errors into the domain sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return domain.ErrNoRecord
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, db.ConstraintName(err))
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrReferenced, db.ConstraintName(err))
	}
	return err
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return domain.ErrNoRecord
	}
	return nil
}

// validID guards uuid columns: a malformed id can never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
