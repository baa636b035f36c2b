package domain

import "time"

const MinutesPerDay = 24 * 60

// Schedule is the opening window of one weekday, as minute offsets from
// midnight UTC. StartMinute == EndMinute marks a closed day.
type Schedule struct {
	ID             string
	OrganizationID string
	Weekday        int
	StartMinute    int
	EndMinute      int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

func (s Schedule) Closed() bool {
	return s.StartMinute == s.EndMinute
}

// Window returns the opening interval on the calendar day of day.
func (s Schedule) Window(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(s.StartMinute) * time.Minute), midnight.Add(time.Duration(s.EndMinute) * time.Minute)
}

func (s *Schedule) Reset(weekday, startMinute, endMinute int, now time.Time) {
	s.Weekday = weekday
	s.StartMinute = startMinute
	s.EndMinute = endMinute
	t := now.UTC()
	s.UpdatedAt = &t
}
