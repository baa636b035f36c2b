package domain

import (
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

// NotFoundOr turns ErrNoRecord into a typed NotFound for subject and wraps
// anything else as a storage fault.
func NotFoundOr(err error, subject apperr.Subject, id string) error {
	if errors.Is(err, ErrNoRecord) {
		return apperr.NotFound(subject, id)
	}
	return fmt.Errorf("load %s %s: %w", subject, id, err)
}

// AlreadyExistsOr turns ErrDuplicate into a typed AlreadyExists and wraps
// anything else as a storage fault.
func AlreadyExistsOr(err error, subject apperr.Subject, field, value string) error {
	if errors.Is(err, ErrDuplicate) {
		return apperr.AlreadyExists(subject, field, value)
	}
	return fmt.Errorf("write %s: %w", subject, err)
}

// RemovedOr is NotFoundOr for deletes. A foreign key that fires after the
// dependents pre-check is reported as HasDependents.
func RemovedOr(err error, subject apperr.Subject, id string, dependent apperr.Subject) error {
	if errors.Is(err, ErrReferenced) {
		return &apperr.HasDependentsError{Subject: subject, ID: id, Dependent: dependent}
	}
	return NotFoundOr(err, subject, id)
}
