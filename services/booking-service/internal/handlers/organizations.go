package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type organizationRequest struct {
	Name string `json:"name"`
}

type organizationResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	OwnerID   string             `json:"owner_id"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	Schedules []scheduleResponse `json:"schedules,omitempty"`
}

func toOrganization(o domain.Organization) organizationResponse {
	out := organizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if len(o.Schedules) > 0 {
		out.Schedules = toSchedules(o.Schedules)
	}
	return out
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !h.decode(w, r, &req) {
		return
	}
	org, err := h.orgs.Create(r.Context(), req.Name, httpx.UserID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrganization(org))
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.ListByOwner(r.Context(), httpx.UserID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganization(o))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Get(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganization(org))
}

func (h *Handler) renameOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !h.decode(w, r, &req) {
		return
	}
	org, err := h.orgs.Rename(r.Context(), orgID(r), req.Name)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganization(org))
}

func (h *Handler) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.Delete(r.Context(), orgID(r)); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
