// Package schedule stores the weekly opening hours of each organization.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

// Entry is one weekday of a submitted schedule.
type Entry struct {
	Weekday     int `json:"weekday"`
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Change rewrites an existing schedule row.
type Change struct {
	ID string `json:"id"`
	Entry
}

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

// Create is the one-time setup of an organization's week. The batch is
// rejected as a whole on the first failing rule; nothing is persisted then.
func (s *Service) Create(ctx context.Context, orgID string, entries []*Entry) ([]domain.Schedule, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.MandatoryFieldMissing("schedules")
	}
	existing, err := s.schedules.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.AlreadyExists(apperr.SubjectSchedule, "organization_id", orgID)
	}

	for i, e := range entries {
		if e == nil {
			return nil, &apperr.MissingScheduleDayError{Index: i}
		}
	}
	flat := make([]Entry, len(entries))
	for i, e := range entries {
		flat[i] = *e
	}
	if err := validate(flat); err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	rows := make([]domain.Schedule, len(flat))
	for i, e := range flat {
		rows[i] = domain.Schedule{
			OrganizationID: orgID,
			Weekday:        e.Weekday,
			StartMinute:    e.StartMinute,
			EndMinute:      e.EndMinute,
			CreatedAt:      createdAt,
		}
	}
	created, err := s.schedules.CreateBatch(ctx, rows)
	if err != nil {
		return nil, domain.AlreadyExistsOr(err, apperr.SubjectSchedule, "organization_id", orgID)
	}
	s.logger.InfoContext(ctx, "schedule created", "organization_id", orgID, "days", len(created))
	return created, nil
}

// Update rewrites existing rows by id. The resulting week is validated the
// same way a new one is.
func (s *Service) Update(ctx context.Context, orgID string, changes []*Change) ([]domain.Schedule, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, apperr.MandatoryFieldMissing("schedules")
	}
	for i, c := range changes {
		if c == nil {
			return nil, &apperr.MissingScheduleDayError{Index: i}
		}
	}

	current, err := s.schedules.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	byID := make(map[string]int, len(current))
	for i, row := range current {
		byID[row.ID] = i
	}

	now := s.now()
	touched := make([]domain.Schedule, 0, len(changes))
	for _, c := range changes {
		i, ok := byID[c.ID]
		if !ok {
			// Rows of other organizations are reported as missing.
			return nil, apperr.NotFound(apperr.SubjectSchedule, c.ID)
		}
		current[i].Reset(c.Weekday, c.StartMinute, c.EndMinute, now)
		touched = append(touched, current[i])
	}

	week := make([]Entry, len(current))
	for i, row := range current {
		week[i] = Entry{Weekday: row.Weekday, StartMinute: row.StartMinute, EndMinute: row.EndMinute}
	}
	if err := validate(week); err != nil {
		return nil, err
	}

	if err := s.schedules.SaveBatch(ctx, touched); err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, apperr.NotFound(apperr.SubjectSchedule, "")
		}
		return nil, domain.AlreadyExistsOr(err, apperr.SubjectSchedule, "organization_id", orgID)
	}
	return s.schedules.ListByOrganization(ctx, orgID)
}

func (s *Service) List(ctx context.Context, orgID string) ([]domain.Schedule, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	rows, err := s.schedules.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return rows, nil
}

// Reset removes the whole week so Create can run again.
func (s *Service) Reset(ctx context.Context, orgID string) (int, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return 0, err
	}
	n, err := s.schedules.DeleteByOrganization(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("delete schedules: %w", err)
	}
	s.logger.InfoContext(ctx, "schedule reset", "organization_id", orgID, "days", n)
	return n, nil
}

// WindowFor returns the opening row for weekday. ok is false when the
// organization has no row for that day or the day is closed.
func (s *Service) WindowFor(ctx context.Context, orgID string, weekday time.Weekday) (domain.Schedule, bool, error) {
	rows, err := s.schedules.ListByOrganization(ctx, orgID)
	if err != nil {
		return domain.Schedule{}, false, fmt.Errorf("list schedules: %w", err)
	}
	for _, row := range rows {
		if row.Weekday == int(weekday) {
			return row, !row.Closed(), nil
		}
	}
	return domain.Schedule{}, false, nil
}

func (s *Service) requireOrganization(ctx context.Context, orgID string) error {
	if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
		return domain.NotFoundOr(err, apperr.SubjectOrganization, orgID)
	}
	return nil
}

// validate applies the weekday, uniqueness and hour range rules in that order.
func validate(entries []Entry) error {
	for _, e := range entries {
		if e.Weekday < 0 || e.Weekday > 6 {
			return apperr.InvalidField("weekday", fmt.Sprintf("must be between 0 and 6 (got %d)", e.Weekday))
		}
	}
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.Weekday] {
			return &apperr.DuplicateWeekdayError{Weekday: e.Weekday}
		}
		seen[e.Weekday] = true
	}
	for _, e := range entries {
		if e.StartMinute < 0 || e.EndMinute > domain.MinutesPerDay || e.StartMinute > e.EndMinute {
			return &apperr.InvalidHourRangeError{Weekday: e.Weekday, StartMinute: e.StartMinute, EndMinute: e.EndMinute}
		}
	}
	return nil
}
