package domain

import (
	"strings"
	"time"
)

type Organization struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt *time.Time

	// Schedules is loaded on read and never persisted through the organization.
	Schedules []Schedule
}

func (o *Organization) Rename(name string, now time.Time) {
	o.Name = strings.TrimSpace(name)
	o.touch(now)
}

func (o *Organization) touch(now time.Time) {
	t := now.UTC()
	o.UpdatedAt = &t
}
