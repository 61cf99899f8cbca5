// Package handler is the thin HTTP layer over the customer lifecycle service.
// It parses and validates transport concerns only; every decision belongs to
// the service and the access policy behind it.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"customerd/internal/authz"
	"customerd/internal/customer/models"
	"customerd/internal/platform/middleware"
	"customerd/internal/transport/http/shared"
	dErrors "customerd/pkg/domain-errors"
)

// Service defines the lifecycle operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, req *models.RegistrationRequest, principal authz.Principal) (models.CustomerResponse, error)
	GetByID(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error)
	Update(ctx context.Context, customerID int64, req *models.UpdateRequest, principal authz.Principal) (models.CustomerResponse, error)
	GetStatus(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error)
	UpdateKycStatus(ctx context.Context, customerID int64, req *models.KycStatusUpdateRequest) (models.CustomerResponse, error)
	GetCustomerIDByUserID(ctx context.Context, userID int64, principal authz.Principal) (models.CustomerIDResponse, error)
	VerifyOwnership(ctx context.Context, customerID, userID int64, principal authz.Principal) (models.OwnershipResponse, error)
	GetAllCustomers(ctx context.Context, principal authz.Principal) ([]models.CustomerResponse, error)
	AdminGetByID(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error)
	AdminUpdateKycStatus(ctx context.Context, customerID int64, req *models.KycStatusUpdateRequest, principal authz.Principal) (models.CustomerResponse, error)
}

// Handler handles /api/customers endpoints.
type Handler struct {
	logger    *slog.Logger
	customers Service
	validator middleware.TokenValidator
}

// New creates a customer Handler.
func New(customers Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		customers: customers,
		validator: validator,
	}
}

// Register mounts all customer routes. Every route requires a verified
// principal; there is no bypass list.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.RequireAuth(h.validator, h.logger))

	api.Post("/register", h.handleRegister)
	api.Get("/{customerId}", h.handleGetByID)
	api.Put("/{customerId}", h.handleUpdate)
	api.Get("/{customerId}/status", h.handleGetStatus)
	api.Put("/{customerId}/kyc-status", h.handleUpdateKycStatus)
	api.Get("/user/{userId}/customer-id", h.handleGetCustomerID)
	api.Get("/{customerId}/verify-ownership/{userId}", h.handleVerifyOwnership)

	api.Get("/admin/all", h.handleAdminList)
	api.Get("/admin/{customerId}", h.handleAdminGet)
	api.Put("/admin/{customerId}/kyc-status", h.handleAdminUpdateKycStatus)

	r.Mount("/api/customers", api)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.customers.Register(r.Context(), &req, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.customers.GetByID(r.Context(), customerID, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.customers.Update(r.Context(), customerID, &req, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.customers.GetStatus(r.Context(), customerID, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

// handleUpdateKycStatus serves the internal KYC route. The caller must be
// authenticated but ownership does not apply: this path is for trusted
// service callers. The admin surface has its own role-gated route.
func (h *Handler) handleUpdateKycStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
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

	resp, err := h.customers.UpdateKycStatus(r.Context(), customerID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCustomerID(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.customers.GetCustomerIDByUserID(r.Context(), userID, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerifyOwnership(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	customerID, err := pathID(r, "customerId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.customers.VerifyOwnership(r.Context(), customerID, userID, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

// principal pulls the verified identity installed by RequireAuth. A missing
// principal means the middleware chain is miswired, not a caller mistake.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "principal missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return authz.Principal{}, false
	}
	return principal, true
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}
