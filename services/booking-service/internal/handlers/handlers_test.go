package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/customer"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/organization"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-05-04 08:00 UTC.
var now = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return now }
	store := memory.NewStore()

	h := New(Services{
		Organizations: organization.NewService(store.Organizations(), store.Schedules(), logger, clock),
		Schedules:     schedule.NewService(store.Organizations(), store.Schedules(), logger, clock),
		Catalog:       catalog.New(store.Organizations(), store.Services(), store.Spaces(), store.Appointments(), logger, clock),
		Customers:     customer.NewService(store.Organizations(), store.Customers(), store.Appointments(), logger, clock),
		Appointments: appointment.NewEngine(appointment.Deps{
			Organizations: store.Organizations(),
			Schedules:     store.Schedules(),
			Services:      store.Services(),
			Spaces:        store.Spaces(),
			Customers:     store.Customers(),
			Appointments:  store.Appointments(),
			Logger:        logger,
			Now:           clock,
		}),
	}, logger)
	return h.Routes()
}

type client struct {
	t      *testing.T
	router http.Handler
	user   string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if c.user != "" {
		req.Header.Set(httpx.UserIDHeader, c.user)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c client) create(path string, body any) map[string]any {
	c.t.Helper()
	rec := c.do(http.MethodPost, path, body)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeObject(c.t, rec)
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

type tenant struct {
	base     string
	service  string
	space    string
	customer string
}

func seed(c client) tenant {
	org := c.create("/api/v1/organizations", map[string]string{"name": "Salon"})
	base := "/api/v1/organizations/" + org["id"].(string)

	rec := c.do(http.MethodPost, base+"/schedules", map[string]any{
		"schedules": []map[string]int{
			{"weekday": 1, "start_minute": 540, "end_minute": 1020},
			{"weekday": 2, "start_minute": 0, "end_minute": 0},
		},
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())

	svc := c.create(base+"/services", map[string]any{"name": "Cut", "price": "20.00", "duration_minutes": 30})
	space := c.create(base+"/spaces", map[string]any{"name": "Chair"})
	cust := c.create(base+"/customers", map[string]any{"name": "Ann", "phone": "123"})
	return tenant{base: base, service: svc["id"].(string), space: space["id"].(string), customer: cust["id"].(string)}
}

func (tn tenant) booking(date string) map[string]any {
	return map[string]any{
		"customer_phone": "123",
		"service_id":     tn.service,
		"space_id":       tn.space,
		"date":           date,
		"description":    "cut",
	}
}

func TestRequiresCallerIdentity(t *testing.T) {
	c := client{t: t, router: newRouter(t)}
	rec := c.do(http.MethodGet, "/api/v1/organizations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForeignOrganizationIsNotFound(t *testing.T) {
	router := newRouter(t)
	owner := client{t: t, router: router, user: "u1"}
	stranger := client{t: t, router: router, user: "u2"}

	org := owner.create("/api/v1/organizations", map[string]string{"name": "Salon"})
	path := "/api/v1/organizations/" + org["id"].(string)

	rec := stranger.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))

	rec = owner.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = owner.do(http.MethodPost, "/api/v1/organizations", map[string]string{"name": "Salon"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", errorKind(t, rec))
}

func TestAppointmentLifecycle(t *testing.T) {
	c := client{t: t, router: newRouter(t), user: "u1"}
	tn := seed(c)

	appt := c.create(tn.base+"/appointments", tn.booking("2026-05-04T09:30:00Z"))
	assert.Equal(t, "PENDING", appt["status"])
	assert.Equal(t, tn.customer, appt["customer_id"])
	path := tn.base + "/appointments/" + appt["id"].(string)

	rec := c.do(http.MethodPost, tn.base+"/appointments", tn.booking("2026-05-04T09:30:00Z"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_unavailable", errorKind(t, rec))

	for _, step := range []struct{ action, status string }{
		{"confirm", "CONFIRMED"},
		{"pay", "PAID"},
		{"cancel", "CANCELED"},
	} {
		rec = c.do(http.MethodPost, path+"/"+step.action, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, step.status, decodeObject(t, rec)["status"])
	}

	rec = c.do(http.MethodPost, path+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorKind(t, rec))

	// The canceled booking no longer holds the slot.
	c.create(tn.base+"/appointments", tn.booking("2026-05-04T09:30:00Z"))

	rec = c.do(http.MethodDelete, tn.base, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "has_dependents", errorKind(t, rec))
}

func TestRescheduleIntoPastIsUnprocessable(t *testing.T) {
	c := client{t: t, router: newRouter(t), user: "u1"}
	tn := seed(c)

	rec := c.do(http.MethodPost, tn.base+"/appointments", tn.booking("2026-05-03T09:30:00Z"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_date", errorKind(t, rec))

	appt := c.create(tn.base+"/appointments", tn.booking("2026-05-04T10:00:00Z"))
	path := tn.base + "/appointments/" + appt["id"].(string)

	rec = c.do(http.MethodPost, path+"/reschedule", map[string]string{"date": "2026-05-01T10:00:00Z"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Moving onto its own slot is allowed.
	rec = c.do(http.MethodPost, path+"/reschedule", map[string]string{"date": "2026-05-04T10:00:00Z"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListAppointmentsValidation(t *testing.T) {
	c := client{t: t, router: newRouter(t), user: "u1"}
	tn := seed(c)
	c.create(tn.base+"/appointments", tn.booking("2026-05-04T10:00:00Z"))

	tests := []struct {
		name   string
		query  string
		status int
		kind   string
	}{
		{"inverted range", "?start=2026-05-05T00:00:00Z&end=2026-05-04T00:00:00Z", http.StatusBadRequest, "invalid_range"},
		{"bad month", "?month=13", http.StatusBadRequest, "invalid_field"},
		{"month not a number", "?month=may", http.StatusBadRequest, "invalid_field"},
		{"no filter", "", http.StatusBadRequest, "mandatory_field_missing"},
		{"bad start", "?start=yesterday&end=2026-05-04T00:00:00Z", http.StatusBadRequest, "invalid_field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodGet, tn.base+"/appointments"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, errorKind(t, rec))
		})
	}

	for _, query := range []string{"?month=5", "?month=5&year=2026", "?start=2026-05-04T10:00:00Z&end=2026-05-04T10:00:00Z"} {
		rec := c.do(http.MethodGet, tn.base+"/appointments"+query, nil)
		require.Equal(t, http.StatusOK, rec.Code, query)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		assert.Len(t, rows, 1, query)
	}
}

func TestScheduleValidationErrors(t *testing.T) {
	c := client{t: t, router: newRouter(t), user: "u1"}
	org := c.create("/api/v1/organizations", map[string]string{"name": "Salon"})
	base := "/api/v1/organizations/" + org["id"].(string)

	tests := []struct {
		name string
		body string
		kind string
	}{
		{"empty", `{"schedules": []}`, "mandatory_field_missing"},
		{"null day", `{"schedules": [null]}`, "missing_schedule_day"},
		{"repeated weekday", `{"schedules": [{"weekday":1,"start_minute":0,"end_minute":60},{"weekday":1,"start_minute":0,"end_minute":60}]}`, "duplicate_weekday"},
		{"inverted hours", `{"schedules": [{"weekday":1,"start_minute":600,"end_minute":60}]}`, "invalid_hour_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, base+"/schedules", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.kind, errorKind(t, rec))
		})
	}

	rec := c.do(http.MethodPost, base+"/schedules", `{"schedules":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", errorKind(t, rec))
}

func TestFreeSlots(t *testing.T) {
	c := client{t: t, router: newRouter(t), user: "u1"}
	tn := seed(c)
	c.create(tn.base+"/appointments", tn.booking("2026-05-04T09:30:00Z"))

	rec := c.do(http.MethodGet, tn.base+"/slots?space_id="+tn.space+"&service_id="+tn.service+"&date=2026-05-04", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Slots []time.Time `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Slots, 15)
	assert.Equal(t, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC), body.Slots[0].UTC())
	assert.NotContains(t, body.Slots, time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC))

	rec = c.do(http.MethodGet, tn.base+"/slots?space_id="+tn.space+"&date=2026-05-04", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "mandatory_field_missing", errorKind(t, rec))
}

func TestStatusFor(t *testing.T) {
	tests := map[apperr.Kind]int{
		apperr.KindNotFound:              http.StatusNotFound,
		apperr.KindAlreadyExists:         http.StatusConflict,
		apperr.KindInvalidState:          http.StatusConflict,
		apperr.KindSlotUnavailable:       http.StatusConflict,
		apperr.KindHasDependents:         http.StatusConflict,
		apperr.KindInvalidDate:           http.StatusUnprocessableEntity,
		apperr.KindInvalidRange:          http.StatusBadRequest,
		apperr.KindMissingScheduleDay:    http.StatusBadRequest,
		apperr.KindDuplicateWeekday:      http.StatusBadRequest,
		apperr.KindInvalidHourRange:      http.StatusBadRequest,
		apperr.KindMandatoryFieldMissing: http.StatusBadRequest,
		apperr.KindInvalidField:          http.StatusBadRequest,
		"":                               http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, statusFor(kind), kind)
	}
}
