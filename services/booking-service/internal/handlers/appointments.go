package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/appointment"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type appointmentRequest struct {
	CustomerPhone string `json:"customer_phone"`
	ServiceID     string `json:"service_id"`
	SpaceID       string `json:"space_id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Observations  string `json:"observations"`
}

type appointmentResponse struct {
	ID           string     `json:"id"`
	ServiceID    string     `json:"service_id"`
	SpaceID      string     `json:"space_id"`
	CustomerID   string     `json:"customer_id"`
	Date         time.Time  `json:"date"`
	Description  string     `json:"description"`
	Observations string     `json:"observations"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func toAppointment(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:           a.ID,
		ServiceID:    a.ServiceID,
		SpaceID:      a.SpaceID,
		CustomerID:   a.CustomerID,
		Date:         a.Date,
		Description:  a.Description,
		Observations: a.Observations,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		CanceledAt:   a.CanceledAt,
		FinishedAt:   a.FinishedAt,
	}
}

func toAppointments(rows []domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAppointment(a))
	}
	return out
}

func appointmentID(r *http.Request) string {
	return chi.URLParam(r, "appointmentID")
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseInstant("date", req.Date)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	appt, err := h.appointments.Create(r.Context(), orgID(r), appointment.CreateInput{
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		SpaceID:       strings.TrimSpace(req.SpaceID),
		Date:          date,
		Description:   req.Description,
		Observations:  req.Observations,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAppointment(appt))
}

// listAppointments serves ?start=&end= (inclusive) or ?month=[&year=].
func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		rows []domain.Appointment
		err  error
	)
	switch {
	case q.Get("start") != "" || q.Get("end") != "":
		var start, end time.Time
		if start, err = parseInstant("start", q.Get("start")); err != nil {
			break
		}
		if end, err = parseInstant("end", q.Get("end")); err != nil {
			break
		}
		rows, err = h.appointments.ListByRange(r.Context(), orgID(r), start, end)
	case q.Get("month") != "":
		var month, year int
		if month, err = queryInt(q.Get("month"), "month"); err != nil {
			break
		}
		if q.Get("year") == "" {
			rows, err = h.appointments.ListByMonth(r.Context(), orgID(r), month)
			break
		}
		if year, err = queryInt(q.Get("year"), "year"); err != nil {
			break
		}
		rows, err = h.appointments.ListByMonthYear(r.Context(), orgID(r), month, year)
	default:
		err = apperr.MandatoryFieldMissing("month")
	}
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointments(rows))
}

func queryInt(raw, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.InvalidField(field, "must be an integer")
	}
	return n, nil
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.FindByID(r.Context(), orgID(r), appointmentID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}

func (h *Handler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	appt, err := h.appointments.Update(r.Context(), orgID(r), appointmentID(r), appointment.UpdateInput{
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		SpaceID:       strings.TrimSpace(req.SpaceID),
		Description:   req.Description,
		Observations:  req.Observations,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.appointments.Delete(r.Context(), orgID(r), appointmentID(r)); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionFunc func(ctx context.Context, orgID, id string) (domain.Appointment, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, step transitionFunc) {
	appt, err := step(r.Context(), orgID(r), appointmentID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}

func (h *Handler) confirmAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.Confirm)
}

func (h *Handler) payAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.MarkPaid)
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.Cancel)
}

func (h *Handler) completeAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.Complete)
}

func (h *Handler) rescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseInstant("date", req.Date)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	appt, err := h.appointments.Reschedule(r.Context(), orgID(r), appointmentID(r), date)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}

func (h *Handler) freeSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, field := range []string{"space_id", "service_id", "date"} {
		if strings.TrimSpace(q.Get(field)) == "" {
			h.writeErr(w, r, apperr.MandatoryFieldMissing(field))
			return
		}
	}
	day, err := time.Parse(time.DateOnly, q.Get("date"))
	if err != nil {
		h.writeErr(w, r, apperr.InvalidField("date", "must be YYYY-MM-DD"))
		return
	}
	slots, err := h.appointments.FreeSlots(r.Context(), orgID(r), q.Get("space_id"), q.Get("service_id"), day)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"date": q.Get("date"), "slots": slots})
}
