// Package organization is the directory of tenants. Every other booking
// record is scoped to an organization.
package organization

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
	orgs      domain.OrganizationRepository
	schedules domain.ScheduleRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(orgs domain.OrganizationRepository, schedules domain.ScheduleRepository, logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orgs: orgs, schedules: schedules, logger: logger, now: now}
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (domain.Organization, error) {
	name = strings.TrimSpace(name)
	ownerID = strings.TrimSpace(ownerID)
	if name == "" {
		return domain.Organization{}, apperr.MandatoryFieldMissing("name")
	}
	if ownerID == "" {
		return domain.Organization{}, apperr.MandatoryFieldMissing("owner_id")
	}
	if err := s.checkNameFree(ctx, name, ""); err != nil {
		return domain.Organization{}, err
	}

	org, err := s.orgs.Create(ctx, domain.Organization{
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Organization{}, domain.AlreadyExistsOr(err, apperr.SubjectOrganization, "name", name)
	}
	s.logger.InfoContext(ctx, "organization created", "organization_id", org.ID, "owner_id", ownerID)
	return org, nil
}

// Get returns the organization with its weekly schedule loaded.
func (s *Service) Get(ctx context.Context, id string) (domain.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return domain.Organization{}, domain.NotFoundOr(err, apperr.SubjectOrganization, id)
	}
	schedules, err := s.schedules.ListByOrganization(ctx, id)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("list schedules: %w", err)
	}
	org.Schedules = schedules
	return org, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Organization, error) {
	orgs, err := s.orgs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

func (s *Service) Rename(ctx context.Context, id, name string) (domain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Organization{}, apperr.MandatoryFieldMissing("name")
	}
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return domain.Organization{}, domain.NotFoundOr(err, apperr.SubjectOrganization, id)
	}
	if org.Name == name {
		return org, nil
	}
	if err := s.checkNameFree(ctx, name, id); err != nil {
		return domain.Organization{}, err
	}

	org.Rename(name, s.now())
	if err := s.orgs.Save(ctx, org); err != nil {
		return domain.Organization{}, domain.AlreadyExistsOr(err, apperr.SubjectOrganization, "name", name)
	}
	return org, nil
}

// Delete removes an organization and its schedule. Organizations that still
// own services, spaces, customers or appointments are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.orgs.FindByID(ctx, id); err != nil {
		return domain.NotFoundOr(err, apperr.SubjectOrganization, id)
	}
	has, err := s.orgs.HasDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("check dependents: %w", err)
	}
	if has {
		return &apperr.HasDependentsError{Subject: apperr.SubjectOrganization, ID: id, Dependent: apperr.SubjectResource}
	}
	if err := s.orgs.Delete(ctx, id); err != nil {
		return domain.RemovedOr(err, apperr.SubjectOrganization, id, apperr.SubjectResource)
	}
	s.logger.InfoContext(ctx, "organization deleted", "organization_id", id)
	return nil
}

// Authorize checks that userID owns orgID. A foreign organization is reported
// as not found so other tenants stay invisible.
func (s *Service) Authorize(ctx context.Context, orgID, userID string) (domain.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return domain.Organization{}, domain.NotFoundOr(err, apperr.SubjectOrganization, orgID)
	}
	if userID == "" || org.OwnerID != userID {
		return domain.Organization{}, apperr.NotFound(apperr.SubjectOrganization, orgID)
	}
	return org, nil
}

func (s *Service) checkNameFree(ctx context.Context, name, exceptID string) error {
	existing, err := s.orgs.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperr.AlreadyExists(apperr.SubjectOrganization, "name", name)
	case err != nil && !errors.Is(err, domain.ErrNoRecord):
		return fmt.Errorf("find organization by name: %w", err)
	}
	return nil
}
