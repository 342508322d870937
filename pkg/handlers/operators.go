package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// CreateOperatorRequest for POST /api/admin/operators
type CreateOperatorRequest struct {
	Name  string `json:"name" validate:"required"`
	TaxID string `json:"tax_id" validate:"required"`
}

// CreateUserRequest for POST /api/admin/users. OperatorID may be empty
// only when creating another instance administrator.
type CreateUserRequest struct {
	OperatorID string `json:"operator_id,omitempty" validate:"omitempty,uuid"`
	TaxID      string `json:"tax_id" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Role       string `json:"role" validate:"required,oneof=global_admin fleet_admin shore crew"`
	Password   string `json:"password,omitempty" validate:"omitempty,min=10"`
	PIN        string `json:"pin,omitempty" validate:"omitempty,min=4,numeric"`
}

// OperatorListResponse for GET /api/admin/operators
type OperatorListResponse struct {
	Operators []*models.Operator `json:"operators"`
	Total     int                `json:"total"`
}

// OperatorsHandler handles operator onboarding and account management.
// Instance administrator surface.
type OperatorsHandler struct {
	operatorService services.OperatorService
	logger          *zap.Logger
}

// NewOperatorsHandler creates a new operators handler.
func NewOperatorsHandler(operatorService services.OperatorService, logger *zap.Logger) *OperatorsHandler {
	return &OperatorsHandler{
		operatorService: operatorService,
		logger:          logger,
	}
}

// RegisterRoutes registers the operator handler's routes on the given mux.
func (h *OperatorsHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/admin/operators", mw.RequireInstanceAdmin(h.List))
	mux.HandleFunc("POST /api/admin/operators", mw.RequireInstanceAdmin(h.Create))
	mux.HandleFunc("POST /api/admin/users", mw.RequireInstanceAdmin(h.CreateUser))
	mux.HandleFunc("DELETE /api/admin/users/{uid}", mw.RequireInstanceAdmin(h.DeactivateUser))
}

// List handles GET /api/admin/operators
func (h *OperatorsHandler) List(w http.ResponseWriter, r *http.Request) {
	operators, err := h.operatorService.List(r.Context())
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := OperatorListResponse{Operators: operators, Total: len(operators)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/admin/operators
func (h *OperatorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	operator := &models.Operator{Name: req.Name, TaxID: req.TaxID}
	if err := h.operatorService.Onboard(r.Context(), operator); err != nil {
		h.logger.Error("Failed to onboard operator", zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: operator}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateUser handles POST /api/admin/users
func (h *OperatorsHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	createReq := services.CreateUserRequest{
		TaxID:    req.TaxID,
		Email:    req.Email,
		Role:     models.Role(req.Role),
		Password: req.Password,
		PIN:      req.PIN,
	}
	if req.OperatorID != "" {
		operatorID, err := uuid.Parse(req.OperatorID)
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_operator_id", "Invalid operator ID format"))
			return
		}
		createReq.OperatorID = &operatorID
	} else if createReq.Role != models.RoleGlobalAdmin {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "operator_required", "Only instance administrators may lack an operator"))
		return
	}

	user, err := h.operatorService.CreateUser(r.Context(), createReq)
	if err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeactivateUser handles DELETE /api/admin/users/{uid}
func (h *OperatorsHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUID(w, r, "uid", "invalid_user_id", "Invalid user ID format", h.logger)
	if !ok {
		return
	}

	if err := h.operatorService.DeactivateUser(r.Context(), userID); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *OperatorsHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
