package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID              string
	OrganizationID  string
	Name            string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int
	Observations    *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// ServicePatch carries the fields to change; nil fields are left alone.
type ServicePatch struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	DurationMinutes *int
	Observations    *string
}

func (p ServicePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.DurationMinutes == nil && p.Observations == nil
}

func (s *Service) Apply(p ServicePatch, now time.Time) {
	if p.Empty() {
		return
	}
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.Observations != nil {
		obs := *p.Observations
		s.Observations = &obs
	}
	t := now.UTC()
	s.UpdatedAt = &t
}

// Space is a place where services are delivered (a room, a chair, a court).
type Space struct {
	ID             string
	OrganizationID string
	Name           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type SpacePatch struct {
	Name        *string
	Description *string
}

func (s *Space) Apply(p SpacePatch, now time.Time) {
	if p.Name == nil && p.Description == nil {
		return
	}
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	t := now.UTC()
	s.UpdatedAt = &t
}
