package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
)

type scheduleResponse struct {
	ID          string     `json:"id"`
	Weekday     int        `json:"weekday"`
	StartMinute int        `json:"start_minute"`
	EndMinute   int        `json:"end_minute"`
	Closed      bool       `json:"closed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func toSchedules(rows []domain.Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, scheduleResponse{
			ID:          s.ID,
			Weekday:     s.Weekday,
			StartMinute: s.StartMinute,
			EndMinute:   s.EndMinute,
			Closed:      s.Closed(),
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return out
}

func (h *Handler) createSchedules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schedules []*schedule.Entry `json:"schedules"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	rows, err := h.schedules.Create(r.Context(), orgID(r), req.Schedules)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSchedules(rows))
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	rows, err := h.schedules.List(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSchedules(rows))
}

func (h *Handler) updateSchedules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schedules []*schedule.Change `json:"schedules"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	rows, err := h.schedules.Update(r.Context(), orgID(r), req.Schedules)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSchedules(rows))
}

func (h *Handler) resetSchedules(w http.ResponseWriter, r *http.Request) {
	n, err := h.schedules.Reset(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
