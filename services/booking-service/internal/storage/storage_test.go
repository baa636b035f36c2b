package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orgID   = "2f0a6f5e-8a4b-4c1e-9d43-0c1f4a7b9e11"
	spaceID = "6b1d2c3e-4f50-4a61-8b72-93a4b5c6d7e8"
)

var created = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestOrganizationCreateDuplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO organizations").
		WithArgs(pgxmock.AnyArg(), "Acme", "owner-1", created).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: domain.ConstraintOrganizationName})

	_, err := NewOrganizationRepository(mock).Create(context.Background(), domain.Organization{Name: "Acme", OwnerID: "owner-1", CreatedAt: created})
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Contains(t, err.Error(), domain.ConstraintOrganizationName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationFindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	// Malformed ids never reach the database.
	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrNoRecord)

	mock.ExpectQuery("FROM organizations WHERE id").
		WithArgs(orgID).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.FindByID(context.Background(), orgID)
	require.ErrorIs(t, err, domain.ErrNoRecord)

	mock.ExpectQuery("FROM organizations WHERE id").
		WithArgs(orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at", "updated_at"}).
			AddRow(orgID, "Acme", "owner-1", created, (*time.Time)(nil)))
	org, err := repo.FindByID(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
	assert.Nil(t, org.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationSaveMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("UPDATE organizations").
		WithArgs(orgID, "Renamed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	now := created
	err := NewOrganizationRepository(mock).Save(context.Background(), domain.Organization{ID: orgID, Name: "Renamed", UpdatedAt: &now})
	require.ErrorIs(t, err, domain.ErrNoRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServicePriceRoundTrip(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRepository(mock)
	price := decimal.RequireFromString("49.90")

	mock.ExpectExec("INSERT INTO services").
		WithArgs(pgxmock.AnyArg(), orgID, "Haircut", "", "49.9", 30, (*string)(nil), created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	svc, err := repo.Create(context.Background(), domain.Service{
		OrganizationID: orgID, Name: "Haircut", Price: price, DurationMinutes: 30, CreatedAt: created,
	})
	require.NoError(t, err)
	require.NotEmpty(t, svc.ID)

	mock.ExpectQuery("FROM services WHERE id").
		WithArgs(svc.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "name", "description", "price", "duration_minutes", "observations", "created_at", "updated_at"}).
			AddRow(svc.ID, orgID, "Haircut", "", "49.90", 30, (*string)(nil), created, (*time.Time)(nil)))
	got, err := repo.FindByID(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, 30*time.Minute, got.Duration())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCreateBatchIsAtomic(t *testing.T) {
	mock := newMock(t)
	rows := []domain.Schedule{
		{OrganizationID: orgID, Weekday: 1, StartMinute: 540, EndMinute: 1020, CreatedAt: created},
		{OrganizationID: orgID, Weekday: 2, StartMinute: 540, EndMinute: 1020, CreatedAt: created},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(pgxmock.AnyArg(), orgID, 1, 540, 1020, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(pgxmock.AnyArg(), orgID, 2, 540, 1020, created).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: domain.ConstraintScheduleWeekday})
	mock.ExpectRollback()

	_, err := NewScheduleRepository(mock).CreateBatch(context.Background(), rows)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSaveBatchMapsDeferredViolation(t *testing.T) {
	mock := newMock(t)
	now := created
	rows := []domain.Schedule{
		{ID: "1c8e2a4f-1111-4a2b-8c3d-4e5f6a7b8c9d", Weekday: 2, StartMinute: 0, EndMinute: 600, UpdatedAt: &now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(rows[0].ID, 2, 0, 600, &now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit().
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: domain.ConstraintScheduleWeekday})

	err := NewScheduleRepository(mock).SaveBatch(context.Background(), rows)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentListByMonthUsesHalfOpenBounds(t *testing.T) {
	mock := newMock(t)
	start, end := domain.MonthBounds(2026, time.February)
	at := time.Date(2026, 2, 28, 23, 30, 0, 0, time.UTC)

	mock.ExpectQuery("FROM appointments WHERE organization_id = \\$1 AND date >= \\$2 AND date < \\$3").
		WithArgs(orgID, start, end).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "organization_id", "service_id", "space_id", "customer_id",
			"date", "description", "observations", "status", "created_at", "updated_at", "canceled_at", "finished_at",
		}).AddRow("a1", orgID, "s1", spaceID, "c1", at, "cut", "", "CONFIRMED", created, (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil)))

	got, err := NewAppointmentRepository(mock).ListByMonth(context.Background(), orgID, 2026, time.February)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusConfirmed, got[0].Status)
	assert.Equal(t, at, got[0].Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateSlotBackstop(t *testing.T) {
	mock := newMock(t)
	appt := domain.NewAppointment(orgID, "s1", spaceID, "c1", created.Add(time.Hour), "", "", created)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: domain.ConstraintAppointmentSlot})

	_, err := NewAppointmentRepository(mock).Create(context.Background(), appt)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasAppointmentsBuildsFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)

	mock.ExpectQuery("WHERE organization_id = \\$1 AND space_id = \\$2").
		WithArgs(orgID, spaceID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	has, err := repo.HasAppointments(context.Background(), domain.AppointmentFilter{OrganizationID: orgID, SpaceID: spaceID})
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasAppointments(context.Background(), domain.AppointmentFilter{SpaceID: "bogus"})
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceDeleteBlockedByForeignKey(t *testing.T) {
	mock := newMock(t)
	svcID := "9e8d7c6b-5a49-4382-9170-6f5e4d3c2b1a"
	mock.ExpectExec("DELETE FROM services").
		WithArgs(svcID).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "appointments_service_id_fkey"})

	err := NewServiceRepository(mock).Delete(context.Background(), svcID)
	require.ErrorIs(t, err, domain.ErrReferenced)
	assert.Contains(t, err.Error(), "appointments_service_id_fkey")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErrPassesThroughOtherFaults(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Same(t, boom, mapErr(boom))
	assert.NoError(t, mapErr(nil))
}
