package appointment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Monday 2026-05-04 08:00 UTC.
var now = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type fixture struct {
	engine   *Engine
	store    *memory.Store
	org      domain.Organization
	customer domain.Customer
	other    domain.Customer
	service  domain.Service
	space    domain.Space
}

func setup(t *testing.T, publisher Publisher) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	org, err := store.Organizations().Create(ctx, domain.Organization{Name: "Salon", OwnerID: "u1"})
	require.NoError(t, err)
	customer, err := store.Customers().Create(ctx, domain.Customer{OrganizationID: org.ID, Name: "Ann", Phone: "123"})
	require.NoError(t, err)
	other, err := store.Customers().Create(ctx, domain.Customer{OrganizationID: org.ID, Name: "Bob", Phone: "456"})
	require.NoError(t, err)
	service, err := store.Services().Create(ctx, domain.Service{OrganizationID: org.ID, Name: "Cut", Price: decimal.NewFromInt(20), DurationMinutes: 30})
	require.NoError(t, err)
	space, err := store.Spaces().Create(ctx, domain.Space{OrganizationID: org.ID, Name: "Chair"})
	require.NoError(t, err)

	engine := NewEngine(Deps{
		Organizations: store.Organizations(),
		Schedules:     store.Schedules(),
		Services:      store.Services(),
		Spaces:        store.Spaces(),
		Customers:     store.Customers(),
		Appointments:  store.Appointments(),
		Publisher:     publisher,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:           func() time.Time { return now },
	})
	return fixture{engine: engine, store: store, org: org, customer: customer, other: other, service: service, space: space}
}

func (f fixture) input(at time.Time) CreateInput {
	return CreateInput{CustomerPhone: f.customer.Phone, ServiceID: f.service.ID, SpaceID: f.space.ID, Date: at, Description: "cut"}
}

func TestCreateCancelComplete(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(26 * time.Hour)

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(at))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, appt.Status)
	assert.Equal(t, f.customer.ID, appt.CustomerID)

	found, err := f.engine.FindByID(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt, found)
	assert.Nil(t, found.CanceledAt)
	assert.Nil(t, found.FinishedAt)

	canceled, err := f.engine.Cancel(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)

	_, err = f.engine.Complete(ctx, f.org.ID, appt.ID)
	var invalid *apperr.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "CANCELED", invalid.Current)
}

func TestCreateSameSlotTwice(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(2 * time.Hour)

	_, err := f.engine.Create(ctx, f.org.ID, f.input(at))
	require.NoError(t, err)

	in := f.input(at)
	in.CustomerPhone = f.other.Phone
	_, err = f.engine.Create(ctx, f.org.ID, in)
	var slot *apperr.SlotUnavailableError
	require.ErrorAs(t, err, &slot)
	assert.Equal(t, at, slot.Instant)
}

func TestCreateCheckOrder(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	past := now.Add(-time.Hour)

	foreignOrg, err := f.store.Organizations().Create(ctx, domain.Organization{Name: "Other", OwnerID: "u2"})
	require.NoError(t, err)
	foreignService, err := f.store.Services().Create(ctx, domain.Service{OrganizationID: foreignOrg.ID, Name: "Cut", DurationMinutes: 10})
	require.NoError(t, err)

	// An occupied slot in the past reports the conflict first.
	_, err = f.store.Appointments().Create(ctx, domain.Appointment{OrganizationID: f.org.ID, SpaceID: f.space.ID, CustomerID: f.other.ID, Date: past, Status: domain.StatusPending})
	require.NoError(t, err)

	cases := []struct {
		name    string
		orgID   string
		mutate  func(*CreateInput)
		kind    apperr.Kind
		subject apperr.Subject
	}{
		{"organization", "missing", func(*CreateInput) {}, apperr.KindNotFound, apperr.SubjectOrganization},
		{"customer", f.org.ID, func(in *CreateInput) { in.CustomerPhone = "000" }, apperr.KindNotFound, apperr.SubjectCustomer},
		{"service of another organization", f.org.ID, func(in *CreateInput) { in.ServiceID = foreignService.ID }, apperr.KindNotFound, apperr.SubjectService},
		{"space", f.org.ID, func(in *CreateInput) { in.SpaceID = "nope" }, apperr.KindNotFound, apperr.SubjectSpace},
		{"slot before date", f.org.ID, func(in *CreateInput) { in.Date = past }, apperr.KindSlotUnavailable, ""},
		{"past date", f.org.ID, func(in *CreateInput) { in.Date = past.Add(-time.Minute) }, apperr.KindInvalidDate, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input(now.Add(time.Hour))
			tc.mutate(&in)
			_, err := f.engine.Create(ctx, tc.orgID, in)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "%v", err)
			if tc.subject != "" {
				var nf *apperr.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, tc.subject, nf.Subject)
			}
		})
	}
}

func TestCanceledAppointmentFreesSlot(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(3 * time.Hour)

	first, err := f.engine.Create(ctx, f.org.ID, f.input(at))
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, f.org.ID, first.ID)
	require.NoError(t, err)

	in := f.input(at)
	in.CustomerPhone = f.other.Phone
	_, err = f.engine.Create(ctx, f.org.ID, in)
	require.NoError(t, err)
}

func TestReschedule(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(5 * time.Hour)
	taken := now.Add(6 * time.Hour)

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(at))
	require.NoError(t, err)
	blocker := f.input(taken)
	blocker.CustomerPhone = f.other.Phone
	_, err = f.engine.Create(ctx, f.org.ID, blocker)
	require.NoError(t, err)

	same, err := f.engine.Reschedule(ctx, f.org.ID, appt.ID, at)
	require.NoError(t, err, "an appointment does not conflict with itself")
	require.NotNil(t, same.UpdatedAt)

	_, err = f.engine.Reschedule(ctx, f.org.ID, appt.ID, taken)
	assert.Equal(t, apperr.KindSlotUnavailable, apperr.KindOf(err))

	_, err = f.engine.Reschedule(ctx, f.org.ID, appt.ID, now.Add(-time.Minute))
	assert.Equal(t, apperr.KindInvalidDate, apperr.KindOf(err))

	moved, err := f.engine.Reschedule(ctx, f.org.ID, appt.ID, now.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*time.Hour), moved.Date)
	assert.Equal(t, domain.StatusPending, moved.Status)

	_, err = f.engine.Complete(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.engine.Reschedule(ctx, f.org.ID, appt.ID, now.Add(8*time.Hour))
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestSubMicrosecondInstantsShareASlot(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(3 * time.Hour)

	first, err := f.engine.Create(ctx, f.org.ID, f.input(at.Add(400*time.Nanosecond)))
	require.NoError(t, err)
	assert.Equal(t, at, first.Date)

	in := f.input(at.Add(time.Nanosecond))
	in.CustomerPhone = f.other.Phone
	_, err = f.engine.Create(ctx, f.org.ID, in)
	assert.Equal(t, apperr.KindSlotUnavailable, apperr.KindOf(err))

	found, err := f.engine.FindByID(ctx, f.org.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Date, found.Date)
}

func TestUpdateOnClosedAppointmentNamesTheOperation(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(now.Add(4*time.Hour)))
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)

	_, err = f.engine.Update(ctx, f.org.ID, appt.ID, UpdateInput{Description: "x"})
	var invalid *apperr.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.TargetUpdated, invalid.Target)
}

func TestOtherOrganizationSeesNothing(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(now.Add(time.Hour)))
	require.NoError(t, err)
	foreign, err := f.store.Organizations().Create(ctx, domain.Organization{Name: "Foreign", OwnerID: "u9"})
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, foreign.ID, appt.ID)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, apperr.SubjectAppointment, nf.Subject)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(f.engine.Delete(ctx, foreign.ID, appt.ID)))
}

func TestUpdate(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	at := now.Add(4 * time.Hour)

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(at))
	require.NoError(t, err)

	_, err = f.engine.Update(ctx, f.org.ID, appt.ID, UpdateInput{ServiceID: "unknown"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.engine.Update(ctx, f.org.ID, appt.ID, UpdateInput{CustomerPhone: "999"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	updated, err := f.engine.Update(ctx, f.org.ID, appt.ID, UpdateInput{
		CustomerPhone: f.other.Phone,
		Description:   "beard trim",
		Observations:  "first visit",
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, updated.CustomerID)
	assert.Equal(t, f.service.ID, updated.ServiceID)
	assert.Equal(t, "beard trim", updated.Description)
	assert.Equal(t, "first visit", updated.Observations)
	assert.Equal(t, at, updated.Date)
	assert.Equal(t, domain.StatusPending, updated.Status)

	_, err = f.engine.Cancel(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.engine.Update(ctx, f.org.ID, appt.ID, UpdateInput{Description: "late"})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	finished, err := f.engine.Create(ctx, f.org.ID, f.input(now.Add(time.Hour)))
	require.NoError(t, err)
	_, err = f.engine.Complete(ctx, f.org.ID, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(f.engine.Delete(ctx, f.org.ID, finished.ID)))

	canceled, err := f.engine.Create(ctx, f.org.ID, f.input(now.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, f.org.ID, canceled.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.Delete(ctx, f.org.ID, canceled.ID))

	_, err = f.engine.FindByID(ctx, f.org.ID, canceled.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListByMonth(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	inMay := time.Date(2026, 5, 31, 23, 0, 0, 0, time.UTC)
	inJune := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.engine.Create(ctx, f.org.ID, f.input(inMay))
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, f.org.ID, f.input(inJune))
	require.NoError(t, err)

	may, err := f.engine.ListByMonth(ctx, f.org.ID, 5)
	require.NoError(t, err)
	require.Len(t, may, 1)
	assert.Equal(t, inMay, may[0].Date)

	june, err := f.engine.ListByMonthYear(ctx, f.org.ID, 6, 2026)
	require.NoError(t, err)
	require.Len(t, june, 1)

	_, err = f.engine.ListByMonthYear(ctx, f.org.ID, 13, 2026)
	var invalid *apperr.InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "month", invalid.Field)

	both, err := f.engine.ListByRange(ctx, f.org.ID, inMay, inJune)
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

type mockAppointments struct {
	mock.Mock
	domain.AppointmentRepository
}

type mockOrganizations struct {
	mock.Mock
	domain.OrganizationRepository
}

func TestListByRangeRejectsInvertedRangeWithoutQuery(t *testing.T) {
	appts := &mockAppointments{}
	orgs := &mockOrganizations{}
	engine := NewEngine(Deps{Organizations: orgs, Appointments: appts, Now: func() time.Time { return now }})

	_, err := engine.ListByRange(context.Background(), "org", now.Add(time.Hour), now)
	var invalid *apperr.InvalidRangeError
	require.ErrorAs(t, err, &invalid)

	// Any repository call would hit the nil embedded interface and panic.
	appts.AssertExpectations(t)
	orgs.AssertExpectations(t)
}

func TestFreeSlots(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.store.Schedules().CreateBatch(ctx, []domain.Schedule{
		{OrganizationID: f.org.ID, Weekday: int(time.Monday), StartMinute: 9 * 60, EndMinute: 11 * 60},
		{OrganizationID: f.org.ID, Weekday: int(time.Tuesday), StartMinute: 0, EndMinute: 0},
	})
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, f.org.ID, f.input(now.Add(90*time.Minute))) // 09:30
	require.NoError(t, err)

	slots, err := f.engine.FreeSlots(ctx, f.org.ID, f.space.ID, f.service.ID, now)
	require.NoError(t, err)
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []time.Time{
		day.Add(9 * time.Hour),
		day.Add(10 * time.Hour),
		day.Add(10*time.Hour + 30*time.Minute),
	}, slots)

	closed, err := f.engine.FreeSlots(ctx, f.org.ID, f.space.ID, f.service.ID, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, closed)

	_, err = f.engine.FreeSlots(ctx, f.org.ID, "nope", f.service.ID, now)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evt outbox.Event) error {
	return m.Called(ctx, evt).Error(0)
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(evt outbox.Event) bool { return evt.EventType == eventType })
}

func TestEventsArePublished(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, eventOfType(outbox.AppointmentCreated)).Return(nil).Once()
	pub.On("Publish", mock.Anything, eventOfType(outbox.AppointmentConfirmed)).Return(nil).Once()
	pub.On("Publish", mock.Anything, eventOfType(outbox.AppointmentPaid)).Return(nil).Once()
	pub.On("Publish", mock.Anything, eventOfType(outbox.AppointmentRescheduled)).Return(nil).Once()
	f := setup(t, pub)
	ctx := context.Background()

	appt, err := f.engine.Create(ctx, f.org.ID, f.input(now.Add(time.Hour)))
	require.NoError(t, err)
	_, err = f.engine.Confirm(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.engine.MarkPaid(ctx, f.org.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.engine.Reschedule(ctx, f.org.ID, appt.ID, now.Add(2*time.Hour))
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("outbox unavailable"))
	f := setup(t, pub)

	appt, err := f.engine.Create(context.Background(), f.org.ID, f.input(now.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestConflictCheckerExcludesSelfAndCanceled(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	at := now.Add(time.Hour)
	repo := store.Appointments()

	booked, err := repo.Create(ctx, domain.Appointment{OrganizationID: "o1", SpaceID: "p1", Date: at, Status: domain.StatusConfirmed})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.Appointment{OrganizationID: "o1", SpaceID: "p2", Date: at, Status: domain.StatusCanceled})
	require.NoError(t, err)

	checker := NewConflictChecker(repo)
	cases := []struct {
		space, exclude string
		at             time.Time
		want           bool
	}{
		{"p1", "", at, false},
		{"p1", booked.ID, at, true},
		{"p1", "", at.Add(time.Minute), true},
		{"p2", "", at, true},
	}
	for _, tc := range cases {
		got, err := checker.IsAvailable(ctx, "o1", tc.space, tc.at, tc.exclude)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "space=%s exclude=%s at=%s", tc.space, tc.exclude, tc.at)
	}
}
