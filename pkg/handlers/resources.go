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

// ResourceRequest for POST /api/resources and PUT /api/resources/{rid}.
// Contract is the raw rule contract document; malformed documents are
// degraded to no contract rather than rejected, matching how stored
// contracts are read.
type ResourceRequest struct {
	Name          string          `json:"name" validate:"required"`
	Purpose       string          `json:"purpose"`
	PeriodicityID string          `json:"periodicity_id" validate:"required,uuid"`
	Requirements  []string        `json:"requirements"`
	Contract      json.RawMessage `json:"contract,omitempty"`

	// Shared creates an operator-less definition. Instance
	// administrators only.
	Shared bool `json:"shared"`
}

// ResourceListResponse for GET /api/resources
type ResourceListResponse struct {
	Resources []*models.ResourceDefinition `json:"resources"`
	Total     int                          `json:"total"`
}

// PeriodicityListResponse for GET /api/periodicities
type PeriodicityListResponse struct {
	Periodicities []*models.Periodicity `json:"periodicities"`
	Total         int                   `json:"total"`
}

// ResourcesHandler handles resource catalog HTTP requests.
type ResourcesHandler struct {
	resourceService services.ResourceService
	matrixService   services.MatrixService
	logger          *zap.Logger
}

// NewResourcesHandler creates a new resources handler.
func NewResourcesHandler(
	resourceService services.ResourceService,
	matrixService services.MatrixService,
	logger *zap.Logger,
) *ResourcesHandler {
	return &ResourcesHandler{
		resourceService: resourceService,
		matrixService:   matrixService,
		logger:          logger,
	}
}

// RegisterRoutes registers the resource handler's routes on the given mux.
func (h *ResourcesHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(string(models.RoleGlobalAdmin), string(models.RoleFleetAdmin))

	mux.HandleFunc("GET /api/resources", mw.RequireTenant(h.List))
	mux.HandleFunc("POST /api/resources", admin(h.Create))
	mux.HandleFunc("GET /api/resources/{rid}", mw.RequireTenant(h.Get))
	mux.HandleFunc("PUT /api/resources/{rid}", admin(h.Update))
	mux.HandleFunc("POST /api/resources/resync", admin(h.Resynchronize))
	mux.HandleFunc("GET /api/periodicities", mw.RequireTenant(h.ListPeriodicities))
}

// List handles GET /api/resources. Returns the applicable set for the
// caller's operator: shared definitions plus operator-owned ones.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "operator_required", "Operator scope required"))
		return
	}

	resources, err := h.resourceService.ListApplicable(r.Context(), operatorID)
	if err != nil {
		h.logger.Error("Failed to list resources", zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := ResourceListResponse{Resources: resources, Total: len(resources)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/resources. Catalog edits do not recompute
// matrices implicitly; POST /api/resources/resync does that on demand.
func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	resource, ok := h.decodeResource(w, r)
	if !ok {
		return
	}

	if err := h.resourceService.Create(r.Context(), resource); err != nil {
		h.logger.Error("Failed to create resource", zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: resource}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/resources/{rid}
func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := ParseResourceID(w, r, h.logger)
	if !ok {
		return
	}

	resource, err := h.resourceService.Get(r.Context(), resourceID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resource}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/resources/{rid}
func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := ParseResourceID(w, r, h.logger)
	if !ok {
		return
	}

	resource, ok := h.decodeResource(w, r)
	if !ok {
		return
	}
	resource.ID = resourceID

	if err := h.resourceService.Update(r.Context(), resource); err != nil {
		h.logger.Error("Failed to update resource",
			zap.String("resource_id", resourceID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resource}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Resynchronize handles POST /api/resources/resync. Re-runs matrix
// synchronization for the caller's whole active fleet, picking up
// catalog edits.
func (h *ResourcesHandler) Resynchronize(w http.ResponseWriter, r *http.Request) {
	operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "operator_required", "Operator scope required"))
		return
	}

	if err := h.matrixService.ResynchronizeOperator(r.Context(), operatorID); err != nil {
		h.logger.Error("Failed to resynchronize fleet",
			zap.String("operator_id", operatorID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPeriodicities handles GET /api/periodicities
func (h *ResourcesHandler) ListPeriodicities(w http.ResponseWriter, r *http.Request) {
	periodicities, err := h.resourceService.ListPeriodicities(r.Context())
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := PeriodicityListResponse{Periodicities: periodicities, Total: len(periodicities)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ResourcesHandler) decodeResource(w http.ResponseWriter, r *http.Request) (*models.ResourceDefinition, bool) {
	var req ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return nil, false
	}

	periodicityID, err := uuid.Parse(req.PeriodicityID)
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_periodicity_id", "Invalid periodicity ID format"))
		return nil, false
	}

	claims, _ := auth.GetClaims(r.Context())
	resource := &models.ResourceDefinition{
		Name:          req.Name,
		Purpose:       req.Purpose,
		PeriodicityID: periodicityID,
		Requirements:  req.Requirements,
		Contract:      models.ParseRuleContract(req.Contract),
	}

	if req.Shared {
		if claims == nil || claims.Role != string(models.RoleGlobalAdmin) {
			h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "role_denied", "Shared definitions require an instance administrator"))
			return nil, false
		}
		// OperatorID stays nil: the definition applies to every operator.
	} else {
		operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "operator_required", "Operator scope required"))
			return nil, false
		}
		resource.OperatorID = &operatorID
	}

	return resource, true
}

func (h *ResourcesHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
