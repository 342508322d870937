package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// OverrideRequest for PUT /api/vessels/{vid}/matrix/{rid}/override
type OverrideRequest struct {
	Quantity int  `json:"quantity" validate:"gte=0"`
	Visible  bool `json:"visible"`
}

// MatrixResponse for GET /api/vessels/{vid}/matrix
type MatrixResponse struct {
	Assignments []*models.Assignment `json:"assignments"`
	Total       int                  `json:"total"`
}

// PruneResponse reports how many stale rows a prune removed.
type PruneResponse struct {
	Pruned int64 `json:"pruned"`
}

// MatrixHandler handles assignment matrix HTTP requests.
type MatrixHandler struct {
	matrixService services.MatrixService
	vesselService services.VesselService
	logger        *zap.Logger
}

// NewMatrixHandler creates a new matrix handler.
func NewMatrixHandler(
	matrixService services.MatrixService,
	vesselService services.VesselService,
	logger *zap.Logger,
) *MatrixHandler {
	return &MatrixHandler{
		matrixService: matrixService,
		vesselService: vesselService,
		logger:        logger,
	}
}

// RegisterRoutes registers the matrix handler's routes on the given mux.
func (h *MatrixHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(string(models.RoleGlobalAdmin), string(models.RoleFleetAdmin))

	mux.HandleFunc("GET /api/vessels/{vid}/matrix", mw.RequireTenant(h.List))
	mux.HandleFunc("POST /api/vessels/{vid}/matrix/sync", admin(h.Synchronize))
	mux.HandleFunc("POST /api/vessels/{vid}/matrix/prune", admin(h.Prune))
	mux.HandleFunc("PUT /api/vessels/{vid}/matrix/{rid}/override", admin(h.SetOverride))
	mux.HandleFunc("DELETE /api/vessels/{vid}/matrix/{rid}/override", admin(h.ClearOverride))
}

// List handles GET /api/vessels/{vid}/matrix
func (h *MatrixHandler) List(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	assignments, err := h.matrixService.GetAssignments(r.Context(), vesselID)
	if err != nil {
		h.logger.Error("Failed to list assignments",
			zap.String("vessel_id", vesselID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := MatrixResponse{Assignments: assignments, Total: len(assignments)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Synchronize handles POST /api/vessels/{vid}/matrix/sync. Explicit
// recomputation; the same reconciliation the vessel lifecycle triggers.
func (h *MatrixHandler) Synchronize(w http.ResponseWriter, r *http.Request) {
	vessel, ok := h.loadVessel(w, r)
	if !ok {
		return
	}

	if err := h.matrixService.Synchronize(r.Context(), vessel); err != nil {
		h.logger.Error("Failed to synchronize matrix",
			zap.String("vessel_id", vessel.ID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Prune handles POST /api/vessels/{vid}/matrix/prune
func (h *MatrixHandler) Prune(w http.ResponseWriter, r *http.Request) {
	vessel, ok := h.loadVessel(w, r)
	if !ok {
		return
	}

	pruned, err := h.matrixService.PruneStale(r.Context(), vessel)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: PruneResponse{Pruned: pruned}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetOverride handles PUT /api/vessels/{vid}/matrix/{rid}/override
func (h *MatrixHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}
	resourceID, ok := ParseResourceID(w, r, h.logger)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	if err := h.matrixService.SetManualOverride(r.Context(), vesselID, resourceID, req.Quantity, req.Visible); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ClearOverride handles DELETE /api/vessels/{vid}/matrix/{rid}/override.
// The row returns to automatic control and is recomputed immediately.
func (h *MatrixHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	vessel, ok := h.loadVessel(w, r)
	if !ok {
		return
	}
	resourceID, ok := ParseResourceID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.matrixService.ClearManualOverride(r.Context(), vessel, resourceID); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *MatrixHandler) loadVessel(w http.ResponseWriter, r *http.Request) (*models.Vessel, bool) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return nil, false
	}
	vessel, err := h.vesselService.Get(r.Context(), vesselID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return nil, false
	}
	return vessel, true
}

func (h *MatrixHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
