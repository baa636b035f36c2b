// Package catalog manages the services an organization sells and the spaces
// they are delivered in. Names are unique within an organization.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Catalog struct {
	orgs         domain.OrganizationRepository
	services     domain.ServiceRepository
	spaces       domain.SpaceRepository
	appointments domain.AppointmentRepository
	logger       *slog.Logger
	now          func() time.Time
}

func New(orgs domain.OrganizationRepository, services domain.ServiceRepository, spaces domain.SpaceRepository, appointments domain.AppointmentRepository, logger *slog.Logger, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{orgs: orgs, services: services, spaces: spaces, appointments: appointments, logger: logger, now: now}
}

type NewService struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int
	Observations    *string
}

func (c *Catalog) CreateService(ctx context.Context, orgID string, in NewService) (domain.Service, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Service{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Service{}, apperr.MandatoryFieldMissing("name")
	}
	if err := validateService(in.Price, in.DurationMinutes); err != nil {
		return domain.Service{}, err
	}
	if err := c.serviceNameFree(ctx, orgID, name, ""); err != nil {
		return domain.Service{}, err
	}

	svc, err := c.services.Create(ctx, domain.Service{
		OrganizationID:  orgID,
		Name:            name,
		Description:     in.Description,
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
		Observations:    in.Observations,
		CreatedAt:       c.now().UTC(),
	})
	if err != nil {
		return domain.Service{}, domain.AlreadyExistsOr(err, apperr.SubjectService, "name", name)
	}
	return svc, nil
}

// GetService returns a service of orgID. Services of other organizations
// are reported as missing.
func (c *Catalog) GetService(ctx context.Context, orgID, id string) (domain.Service, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Service{}, err
	}
	return c.loadService(ctx, orgID, id)
}

func (c *Catalog) ListServices(ctx context.Context, orgID string) ([]domain.Service, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	out, err := c.services.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (c *Catalog) UpdateService(ctx context.Context, orgID, id string, patch domain.ServicePatch) (domain.Service, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Service{}, err
	}
	svc, err := c.loadService(ctx, orgID, id)
	if err != nil {
		return domain.Service{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Service{}, apperr.MandatoryFieldMissing("name")
		}
		if err := c.serviceNameFree(ctx, orgID, name, id); err != nil {
			return domain.Service{}, err
		}
	}

	svc.Apply(patch, c.now())
	if err := validateService(svc.Price, svc.DurationMinutes); err != nil {
		return domain.Service{}, err
	}
	if err := c.services.Save(ctx, svc); err != nil {
		return domain.Service{}, domain.AlreadyExistsOr(err, apperr.SubjectService, "name", svc.Name)
	}
	return svc, nil
}

// DeleteService refuses while appointments still reference the service.
func (c *Catalog) DeleteService(ctx context.Context, orgID, id string) error {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return err
	}
	if _, err := c.loadService(ctx, orgID, id); err != nil {
		return err
	}
	if err := c.restrict(ctx, domain.AppointmentFilter{ServiceID: id}, apperr.SubjectService, id); err != nil {
		return err
	}
	if err := c.services.Delete(ctx, id); err != nil {
		return domain.RemovedOr(err, apperr.SubjectService, id, apperr.SubjectAppointment)
	}
	c.logger.InfoContext(ctx, "service deleted", "organization_id", orgID, "service_id", id)
	return nil
}

type NewSpace struct {
	Name        string
	Description string
}

func (c *Catalog) CreateSpace(ctx context.Context, orgID string, in NewSpace) (domain.Space, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Space{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Space{}, apperr.MandatoryFieldMissing("name")
	}
	if err := c.spaceNameFree(ctx, orgID, name, ""); err != nil {
		return domain.Space{}, err
	}

	sp, err := c.spaces.Create(ctx, domain.Space{
		OrganizationID: orgID,
		Name:           name,
		Description:    in.Description,
		CreatedAt:      c.now().UTC(),
	})
	if err != nil {
		return domain.Space{}, domain.AlreadyExistsOr(err, apperr.SubjectSpace, "name", name)
	}
	return sp, nil
}

func (c *Catalog) GetSpace(ctx context.Context, orgID, id string) (domain.Space, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Space{}, err
	}
	return c.loadSpace(ctx, orgID, id)
}

func (c *Catalog) ListSpaces(ctx context.Context, orgID string) ([]domain.Space, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	out, err := c.spaces.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return out, nil
}

func (c *Catalog) UpdateSpace(ctx context.Context, orgID, id string, patch domain.SpacePatch) (domain.Space, error) {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return domain.Space{}, err
	}
	sp, err := c.loadSpace(ctx, orgID, id)
	if err != nil {
		return domain.Space{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Space{}, apperr.MandatoryFieldMissing("name")
		}
		if err := c.spaceNameFree(ctx, orgID, name, id); err != nil {
			return domain.Space{}, err
		}
	}

	sp.Apply(patch, c.now())
	if err := c.spaces.Save(ctx, sp); err != nil {
		return domain.Space{}, domain.AlreadyExistsOr(err, apperr.SubjectSpace, "name", sp.Name)
	}
	return sp, nil
}

func (c *Catalog) DeleteSpace(ctx context.Context, orgID, id string) error {
	if err := c.requireOrganization(ctx, orgID); err != nil {
		return err
	}
	if _, err := c.loadSpace(ctx, orgID, id); err != nil {
		return err
	}
	if err := c.restrict(ctx, domain.AppointmentFilter{SpaceID: id}, apperr.SubjectSpace, id); err != nil {
		return err
	}
	if err := c.spaces.Delete(ctx, id); err != nil {
		return domain.RemovedOr(err, apperr.SubjectSpace, id, apperr.SubjectAppointment)
	}
	c.logger.InfoContext(ctx, "space deleted", "organization_id", orgID, "space_id", id)
	return nil
}

func (c *Catalog) loadService(ctx context.Context, orgID, id string) (domain.Service, error) {
	svc, err := c.services.FindByID(ctx, id)
	if err != nil {
		return domain.Service{}, domain.NotFoundOr(err, apperr.SubjectService, id)
	}
	if svc.OrganizationID != orgID {
		return domain.Service{}, apperr.NotFound(apperr.SubjectService, id)
	}
	return svc, nil
}

func (c *Catalog) loadSpace(ctx context.Context, orgID, id string) (domain.Space, error) {
	sp, err := c.spaces.FindByID(ctx, id)
	if err != nil {
		return domain.Space{}, domain.NotFoundOr(err, apperr.SubjectSpace, id)
	}
	if sp.OrganizationID != orgID {
		return domain.Space{}, apperr.NotFound(apperr.SubjectSpace, id)
	}
	return sp, nil
}

func (c *Catalog) serviceNameFree(ctx context.Context, orgID, name, exceptID string) error {
	existing, err := c.services.FindByName(ctx, orgID, name)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperr.AlreadyExists(apperr.SubjectService, "name", name)
	case err != nil && !errors.Is(err, domain.ErrNoRecord):
		return fmt.Errorf("find service by name: %w", err)
	}
	return nil
}

func (c *Catalog) spaceNameFree(ctx context.Context, orgID, name, exceptID string) error {
	existing, err := c.spaces.FindByName(ctx, orgID, name)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperr.AlreadyExists(apperr.SubjectSpace, "name", name)
	case err != nil && !errors.Is(err, domain.ErrNoRecord):
		return fmt.Errorf("find space by name: %w", err)
	}
	return nil
}

func (c *Catalog) restrict(ctx context.Context, filter domain.AppointmentFilter, subject apperr.Subject, id string) error {
	has, err := c.appointments.HasAppointments(ctx, filter)
	if err != nil {
		return fmt.Errorf("check appointments: %w", err)
	}
	if has {
		return &apperr.HasDependentsError{Subject: subject, ID: id, Dependent: apperr.SubjectAppointment}
	}
	return nil
}

func (c *Catalog) requireOrganization(ctx context.Context, orgID string) error {
	if _, err := c.orgs.FindByID(ctx, orgID); err != nil {
		return domain.NotFoundOr(err, apperr.SubjectOrganization, orgID)
	}
	return nil
}

func validateService(price decimal.Decimal, durationMinutes int) error {
	if durationMinutes <= 0 {
		return apperr.InvalidField("duration_minutes", "must be greater than zero")
	}
	if price.IsNegative() {
		return apperr.InvalidField("price", "must not be negative")
	}
	return nil
}
