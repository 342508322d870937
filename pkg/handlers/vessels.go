package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// CreateVesselRequest for POST /api/vessels
type CreateVesselRequest struct {
	Name         string  `json:"name" validate:"required"`
	Registration string  `json:"registration" validate:"required"`
	LengthM      float64 `json:"length_m" validate:"gte=0"`
	GrossTonnage float64 `json:"gross_tonnage" validate:"gte=0"`
	Capacity     int     `json:"capacity" validate:"gte=0"`
}

// UpdateVesselRequest for PUT /api/vessels/{vid}
type UpdateVesselRequest struct {
	Name         string  `json:"name" validate:"required"`
	Registration string  `json:"registration" validate:"required"`
	LengthM      float64 `json:"length_m" validate:"gte=0"`
	GrossTonnage float64 `json:"gross_tonnage" validate:"gte=0"`
	Capacity     int     `json:"capacity" validate:"gte=0"`
	IsActive     bool    `json:"is_active"`
}

// VesselListResponse for GET /api/vessels
type VesselListResponse struct {
	Vessels []*models.Vessel `json:"vessels"`
	Total   int              `json:"total"`
}

// VesselsHandler handles vessel lifecycle HTTP requests.
type VesselsHandler struct {
	vesselService services.VesselService
	logger        *zap.Logger
}

// NewVesselsHandler creates a new vessels handler.
func NewVesselsHandler(vesselService services.VesselService, logger *zap.Logger) *VesselsHandler {
	return &VesselsHandler{
		vesselService: vesselService,
		logger:        logger,
	}
}

// RegisterRoutes registers the vessel handler's routes on the given mux.
func (h *VesselsHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(string(models.RoleGlobalAdmin), string(models.RoleFleetAdmin))

	mux.HandleFunc("GET /api/vessels", mw.RequireTenant(h.List))
	mux.HandleFunc("POST /api/vessels", admin(h.Create))
	mux.HandleFunc("GET /api/vessels/{vid}", mw.RequireTenant(h.Get))
	mux.HandleFunc("PUT /api/vessels/{vid}", admin(h.Update))
	mux.HandleFunc("DELETE /api/vessels/{vid}", admin(h.Deactivate))
}

// List handles GET /api/vessels. ?active=true restricts to active vessels.
func (h *VesselsHandler) List(w http.ResponseWriter, r *http.Request) {
	operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "operator_required", "Operator scope required"))
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	vessels, err := h.vesselService.List(r.Context(), operatorID, activeOnly)
	if err != nil {
		h.logger.Error("Failed to list vessels",
			zap.String("operator_id", operatorID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := VesselListResponse{Vessels: vessels, Total: len(vessels)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/vessels. The new vessel is created active
// and its matrix is synchronized before the response is written.
func (h *VesselsHandler) Create(w http.ResponseWriter, r *http.Request) {
	operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusForbidden, "operator_required", "Operator scope required"))
		return
	}

	var req CreateVesselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	vessel := &models.Vessel{
		OperatorID:   operatorID,
		Name:         req.Name,
		Registration: req.Registration,
		LengthM:      req.LengthM,
		GrossTonnage: req.GrossTonnage,
		Capacity:     req.Capacity,
		IsActive:     true,
	}
	if err := h.vesselService.Create(r.Context(), vessel); err != nil {
		h.logger.Error("Failed to create vessel", zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: vessel}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/vessels/{vid}
func (h *VesselsHandler) Get(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	vessel, err := h.vesselService.Get(r.Context(), vesselID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: vessel}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/vessels/{vid}. Attribute changes trigger
// matrix resynchronization for the vessel.
func (h *VesselsHandler) Update(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateVesselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	vessel, err := h.vesselService.Get(r.Context(), vesselID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	vessel.Name = req.Name
	vessel.Registration = req.Registration
	vessel.LengthM = req.LengthM
	vessel.GrossTonnage = req.GrossTonnage
	vessel.Capacity = req.Capacity
	vessel.IsActive = req.IsActive

	if err := h.vesselService.Update(r.Context(), vessel); err != nil {
		h.logger.Error("Failed to update vessel",
			zap.String("vessel_id", vesselID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: vessel}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/vessels/{vid}. Soft removal only.
func (h *VesselsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.vesselService.Deactivate(r.Context(), vesselID); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *VesselsHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
