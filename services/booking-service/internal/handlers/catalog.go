package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/shopspring/decimal"
)

type serviceRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DurationMinutes *int             `json:"duration_minutes"`
	Observations    *string          `json:"observations"`
}

type serviceResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Observations    *string         `json:"observations,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

func toService(s domain.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		Observations:    s.Observations,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, err := h.catalog.CreateService(r.Context(), orgID(r), catalog.NewService{
		Name:            deref(req.Name),
		Description:     deref(req.Description),
		Price:           deref(req.Price),
		DurationMinutes: deref(req.DurationMinutes),
		Observations:    req.Observations,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toService(svc))
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.ListServices(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]serviceResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toService(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.GetService(r.Context(), orgID(r), chi.URLParam(r, "serviceID"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toService(svc))
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, err := h.catalog.UpdateService(r.Context(), orgID(r), chi.URLParam(r, "serviceID"), domain.ServicePatch{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Observations:    req.Observations,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toService(svc))
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteService(r.Context(), orgID(r), chi.URLParam(r, "serviceID")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type spaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type spaceResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func toSpace(s domain.Space) spaceResponse {
	return spaceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (h *Handler) createSpace(w http.ResponseWriter, r *http.Request) {
	var req spaceRequest
	if !h.decode(w, r, &req) {
		return
	}
	space, err := h.catalog.CreateSpace(r.Context(), orgID(r), catalog.NewSpace{
		Name:        deref(req.Name),
		Description: deref(req.Description),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSpace(space))
}

func (h *Handler) listSpaces(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.ListSpaces(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]spaceResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toSpace(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.catalog.GetSpace(r.Context(), orgID(r), chi.URLParam(r, "spaceID"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSpace(space))
}

func (h *Handler) updateSpace(w http.ResponseWriter, r *http.Request) {
	var req spaceRequest
	if !h.decode(w, r, &req) {
		return
	}
	space, err := h.catalog.UpdateSpace(r.Context(), orgID(r), chi.URLParam(r, "spaceID"), domain.SpacePatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSpace(space))
}

func (h *Handler) deleteSpace(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSpace(r.Context(), orgID(r), chi.URLParam(r, "spaceID")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
