package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type customerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type customerResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toCustomer(c domain.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.customers.Create(r.Context(), orgID(r), deref(req.Name), deref(req.Phone))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCustomer(c))
}

// listCustomers narrows to a single customer when ?phone= is given.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	if phone := strings.TrimSpace(r.URL.Query().Get("phone")); phone != "" {
		c, err := h.customers.GetByPhone(r.Context(), orgID(r), phone)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCustomer(c))
		return
	}

	rows, err := h.customers.List(r.Context(), orgID(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]customerResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, toCustomer(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.Get(r.Context(), orgID(r), chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCustomer(c))
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.customers.Update(r.Context(), orgID(r), chi.URLParam(r, "customerID"), domain.CustomerPatch{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCustomer(c))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), orgID(r), chi.URLParam(r, "customerID")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
