package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID             string
	OrganizationID string
	Name           string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type CustomerPatch struct {
	Name  *string
	Phone *string
}

func (c *Customer) Apply(p CustomerPatch, now time.Time) {
	if p.Name == nil && p.Phone == nil {
		return
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	t := now.UTC()
	c.UpdatedAt = &t
}
