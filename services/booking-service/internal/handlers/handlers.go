// Package handlers exposes the booking core over HTTP. Every route sits under
// /api/v1/organizations and expects the caller identity forwarded by the
// gateway in X-User-Id.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/customer"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/organization"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
)

type Services struct {
	Organizations *organization.Service
	Schedules     *schedule.Service
	Catalog       *catalog.Catalog
	Customers     *customer.Service
	Appointments  *appointment.Engine
}

type Handler struct {
	orgs         *organization.Service
	schedules    *schedule.Service
	catalog      *catalog.Catalog
	customers    *customer.Service
	appointments *appointment.Engine
	logger       *slog.Logger
}

func New(s Services, logger *slog.Logger) *Handler {
	return &Handler{
		orgs:         s.Organizations,
		schedules:    s.Schedules,
		catalog:      s.Catalog,
		customers:    s.Customers,
		appointments: s.Appointments,
		logger:       logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requireUser)

	r.Route("/api/v1/organizations", func(r chi.Router) {
		r.Post("/", h.createOrganization)
		r.Get("/", h.listOrganizations)

		r.Route("/{orgID}", func(r chi.Router) {
			r.Use(h.tenant)
			r.Get("/", h.getOrganization)
			r.Patch("/", h.renameOrganization)
			r.Delete("/", h.deleteOrganization)

			r.Route("/schedules", func(r chi.Router) {
				r.Post("/", h.createSchedules)
				r.Get("/", h.listSchedules)
				r.Put("/", h.updateSchedules)
				r.Delete("/", h.resetSchedules)
			})

			r.Route("/services", func(r chi.Router) {
				r.Post("/", h.createService)
				r.Get("/", h.listServices)
				r.Get("/{serviceID}", h.getService)
				r.Patch("/{serviceID}", h.updateService)
				r.Delete("/{serviceID}", h.deleteService)
			})

			r.Route("/spaces", func(r chi.Router) {
				r.Post("/", h.createSpace)
				r.Get("/", h.listSpaces)
				r.Get("/{spaceID}", h.getSpace)
				r.Patch("/{spaceID}", h.updateSpace)
				r.Delete("/{spaceID}", h.deleteSpace)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Post("/", h.createCustomer)
				r.Get("/", h.listCustomers)
				r.Get("/{customerID}", h.getCustomer)
				r.Patch("/{customerID}", h.updateCustomer)
				r.Delete("/{customerID}", h.deleteCustomer)
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", h.createAppointment)
				r.Get("/", h.listAppointments)
				r.Route("/{appointmentID}", func(r chi.Router) {
					r.Get("/", h.getAppointment)
					r.Patch("/", h.updateAppointment)
					r.Delete("/", h.deleteAppointment)
					r.Post("/confirm", h.confirmAppointment)
					r.Post("/pay", h.payAppointment)
					r.Post("/cancel", h.cancelAppointment)
					r.Post("/complete", h.completeAppointment)
					r.Post("/reschedule", h.rescheduleAppointment)
				})
			})

			r.Get("/slots", h.freeSlots)
		})
	})
	return r
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpx.UserID(r) == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tenant rejects requests for organizations the caller does not own.
func (h *Handler) tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.orgs.Authorize(r.Context(), orgID(r), httpx.UserID(r)); err != nil {
			h.writeErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func orgID(r *http.Request) string {
	return chi.URLParam(r, "orgID")
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyExists, apperr.KindInvalidState, apperr.KindSlotUnavailable, apperr.KindHasDependents:
		return http.StatusConflict
	case apperr.KindInvalidDate:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidRange, apperr.KindMissingScheduleDay, apperr.KindDuplicateWeekday,
		apperr.KindInvalidHourRange, apperr.KindMandatoryFieldMissing, apperr.KindInvalidField:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		httpx.WriteError(w, status, "internal", "internal server error")
		return
	}
	httpx.WriteError(w, status, string(kind), err.Error())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func parseInstant(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.MandatoryFieldMissing(field)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.InvalidField(field, "must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}
