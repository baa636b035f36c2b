package organization

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.Organizations(), store.Schedules(), logger, func() time.Time { return now }), store
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, "  Barber Shop ", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Barber Shop", org.Name)
	assert.Equal(t, now, org.CreatedAt)

	_, err = svc.Create(ctx, "Barber Shop", "owner-2")
	var exists *apperr.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, apperr.SubjectOrganization, exists.Subject)

	_, err = svc.Create(ctx, " ", "owner-2")
	assert.Equal(t, apperr.KindMandatoryFieldMissing, apperr.KindOf(err))
}

func TestGetLoadsSchedules(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, "Clinic", "owner-1")
	require.NoError(t, err)
	_, err = store.Schedules().CreateBatch(ctx, []domain.Schedule{
		{OrganizationID: org.ID, Weekday: 2, StartMinute: 480, EndMinute: 960},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, got.Schedules, 1)
	assert.Equal(t, 2, got.Schedules[0].Weekday)

	_, err = svc.Get(ctx, "nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRenameStampsUpdatedAt(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "A", "owner-1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "B", "owner-1")
	require.NoError(t, err)

	_, err = svc.Rename(ctx, a.ID, "B")
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))

	renamed, err := svc.Rename(ctx, a.ID, "C")
	require.NoError(t, err)
	assert.Equal(t, "C", renamed.Name)
	require.NotNil(t, renamed.UpdatedAt)
	assert.Equal(t, now, *renamed.UpdatedAt)
}

func TestAuthorizeHidesForeignOrganizations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, "Studio", "owner-1")
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, org.ID, "owner-1")
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, org.ID, "owner-2")
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, org.ID, nf.ID)

	_, err = svc.Authorize(ctx, "missing", "owner-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteRestrictsDependents(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, "Gym", "owner-1")
	require.NoError(t, err)
	_, err = store.Customers().Create(ctx, domain.Customer{OrganizationID: org.ID, Name: "Ann", Phone: "123"})
	require.NoError(t, err)

	err = svc.Delete(ctx, org.ID)
	assert.Equal(t, apperr.KindHasDependents, apperr.KindOf(err))

	empty, err := svc.Create(ctx, "Empty", "owner-1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, empty.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, empty.ID)))
}
