package domain

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func pending() Appointment {
	a := NewAppointment("org", "svc", "space", "cust", t0.Add(48*time.Hour), "cut", "", t0)
	a.ID = "appt-1"
	return a
}

func TestNewAppointmentIsPending(t *testing.T) {
	a := pending()
	assert.Equal(t, StatusPending, a.Status)
	assert.Nil(t, a.UpdatedAt)
	assert.Nil(t, a.CanceledAt)
	assert.Nil(t, a.FinishedAt)
	assert.True(t, a.Status.Open())
}

func TestCancelThenComplete(t *testing.T) {
	a := pending()
	now := t0.Add(time.Hour)

	require.NoError(t, a.Cancel(now))
	assert.Equal(t, StatusCanceled, a.Status)
	require.NotNil(t, a.CanceledAt)
	assert.Equal(t, now, *a.CanceledAt)
	assert.Equal(t, now, *a.UpdatedAt)
	assert.Nil(t, a.FinishedAt)

	err := a.Complete(now.Add(time.Minute))
	var invalid *apperr.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "CANCELED", invalid.Current)
	assert.Equal(t, "FINISHED", invalid.Target)
	assert.Nil(t, a.FinishedAt)
	assert.Equal(t, now, *a.UpdatedAt)
}

func TestStatusPreservingRejectionsNameTheOperation(t *testing.T) {
	a := pending()
	require.NoError(t, a.Cancel(t0))

	var invalid *apperr.InvalidStateError
	require.ErrorAs(t, a.Reschedule(t0.Add(time.Hour), t0), &invalid)
	assert.Equal(t, "CANCELED", invalid.Current)
	assert.Equal(t, TargetRescheduled, invalid.Target)

	require.ErrorAs(t, a.Apply(AppointmentChanges{}, t0), &invalid)
	assert.Equal(t, TargetUpdated, invalid.Target)
}

func TestInstantsAreStoredAtMicrosecondPrecision(t *testing.T) {
	at := t0.Add(48*time.Hour + 1500*time.Nanosecond)
	a := NewAppointment("org", "svc", "space", "cust", at, "", "", t0)
	assert.Equal(t, t0.Add(48*time.Hour+time.Microsecond), a.Date)

	require.NoError(t, a.Reschedule(at.Add(time.Hour), t0))
	assert.Equal(t, t0.Add(49*time.Hour+time.Microsecond), a.Date)
}

func TestTerminalStatesRejectMutations(t *testing.T) {
	for _, terminal := range []func(*Appointment) error{
		func(a *Appointment) error { return a.Cancel(t0) },
		func(a *Appointment) error { return a.Complete(t0) },
	} {
		a := pending()
		require.NoError(t, terminal(&a))

		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.Cancel(t0)))
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.Complete(t0)))
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.Reschedule(t0.Add(time.Hour), t0)))
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.Apply(AppointmentChanges{}, t0)))
	}
}

func TestConfirmAndPay(t *testing.T) {
	a := pending()
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.MarkPaid(t0)))

	require.NoError(t, a.Confirm(t0))
	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.Confirm(t0)))

	require.NoError(t, a.MarkPaid(t0))
	assert.Equal(t, StatusPaid, a.Status)
	assert.True(t, a.Status.Open())

	require.NoError(t, a.Complete(t0))
	assert.Equal(t, StatusFinished, a.Status)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(a.CheckDeletable()))
}

func TestApplyReplacesFieldsOnly(t *testing.T) {
	a := pending()
	date := a.Date
	now := t0.Add(2 * time.Hour)

	require.NoError(t, a.Apply(AppointmentChanges{
		CustomerID:   "cust-2",
		ServiceID:    "svc-2",
		SpaceID:      "space-2",
		Description:  "color",
		Observations: "allergic to ammonia",
	}, now))

	assert.Equal(t, "cust-2", a.CustomerID)
	assert.Equal(t, "svc-2", a.ServiceID)
	assert.Equal(t, "space-2", a.SpaceID)
	assert.Equal(t, "color", a.Description)
	assert.Equal(t, "allergic to ammonia", a.Observations)
	assert.Equal(t, date, a.Date)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, now, *a.UpdatedAt)
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2026, time.December)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestScheduleWindow(t *testing.T) {
	s := Schedule{Weekday: 1, StartMinute: 9 * 60, EndMinute: 17*60 + 30}
	start, end := s.Window(time.Date(2026, 5, 4, 15, 4, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 5, 4, 17, 30, 0, 0, time.UTC), end)
	assert.False(t, s.Closed())
	assert.True(t, Schedule{StartMinute: 0, EndMinute: 0}.Closed())
}
