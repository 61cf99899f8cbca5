package handler

import (
	"encoding/json"
	"net/http"

	"customerd/internal/customer/models"
	"customerd/internal/transport/http/shared"
	dErrors "customerd/pkg/domain-errors"
)

// Admin surface: the ADMIN role carried by the principal is the only gate.
// Role checks live in the service so they cannot drift from the routes.

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	resp, err := h.customers.GetAllCustomers(r.Context(), principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.customers.AdminGetByID(r.Context(), customerID, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminUpdateKycStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.KycStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.customers.AdminUpdateKycStatus(r.Context(), customerID, &req, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}
