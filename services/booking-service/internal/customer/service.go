// Package customer is the per-organization customer directory. Customers are
// identified by phone within their organization.
package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type Service struct {
	orgs         domain.OrganizationRepository
	customers    domain.CustomerRepository
	appointments domain.AppointmentRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(orgs domain.OrganizationRepository, customers domain.CustomerRepository, appointments domain.AppointmentRepository, logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orgs: orgs, customers: customers, appointments: appointments, logger: logger, now: now}
}

func (s *Service) Create(ctx context.Context, orgID, name, phone string) (domain.Customer, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return domain.Customer{}, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Customer{}, apperr.MandatoryFieldMissing("phone")
	}
	if err := s.phoneFree(ctx, orgID, phone, ""); err != nil {
		return domain.Customer{}, err
	}

	c, err := s.customers.Create(ctx, domain.Customer{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(name),
		Phone:          phone,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return domain.Customer{}, domain.AlreadyExistsOr(err, apperr.SubjectCustomer, "phone", phone)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (domain.Customer, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return domain.Customer{}, err
	}
	return s.load(ctx, orgID, id)
}

func (s *Service) GetByPhone(ctx context.Context, orgID, phone string) (domain.Customer, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return domain.Customer{}, err
	}
	phone = strings.TrimSpace(phone)
	c, err := s.customers.FindByPhone(ctx, orgID, phone)
	if err != nil {
		return domain.Customer{}, domain.NotFoundOr(err, apperr.SubjectCustomer, phone)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]domain.Customer, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	out, err := s.customers.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, orgID, id string, patch domain.CustomerPatch) (domain.Customer, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return domain.Customer{}, err
	}
	c, err := s.load(ctx, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if phone == "" {
			return domain.Customer{}, apperr.MandatoryFieldMissing("phone")
		}
		if err := s.phoneFree(ctx, orgID, phone, id); err != nil {
			return domain.Customer{}, err
		}
	}

	c.Apply(patch, s.now())
	if err := s.customers.Save(ctx, c); err != nil {
		return domain.Customer{}, domain.AlreadyExistsOr(err, apperr.SubjectCustomer, "phone", c.Phone)
	}
	return c, nil
}

// Delete refuses while the customer still has appointments.
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return err
	}
	if _, err := s.load(ctx, orgID, id); err != nil {
		return err
	}
	has, err := s.appointments.HasAppointments(ctx, domain.AppointmentFilter{CustomerID: id})
	if err != nil {
		return fmt.Errorf("check appointments: %w", err)
	}
	if has {
		return &apperr.HasDependentsError{Subject: apperr.SubjectCustomer, ID: id, Dependent: apperr.SubjectAppointment}
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return domain.RemovedOr(err, apperr.SubjectCustomer, id, apperr.SubjectAppointment)
	}
	s.logger.InfoContext(ctx, "customer deleted", "organization_id", orgID, "customer_id", id)
	return nil
}

func (s *Service) load(ctx context.Context, orgID, id string) (domain.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return domain.Customer{}, domain.NotFoundOr(err, apperr.SubjectCustomer, id)
	}
	if c.OrganizationID != orgID {
		return domain.Customer{}, apperr.NotFound(apperr.SubjectCustomer, id)
	}
	return c, nil
}

func (s *Service) phoneFree(ctx context.Context, orgID, phone, exceptID string) error {
	existing, err := s.customers.FindByPhone(ctx, orgID, phone)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperr.AlreadyExists(apperr.SubjectCustomer, "phone", phone)
	case err != nil && !errors.Is(err, domain.ErrNoRecord):
		return fmt.Errorf("find customer by phone: %w", err)
	}
	return nil
}

func (s *Service) requireOrganization(ctx context.Context, orgID string) error {
	if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
		return domain.NotFoundOr(err, apperr.SubjectOrganization, orgID)
	}
	return nil
}
