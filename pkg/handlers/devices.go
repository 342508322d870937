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

// ProvisionDeviceRequest for POST /api/devices. OperatorID is how an
// instance administrator names the target operator; tenant admins omit
// it and provision for their own operator.
type ProvisionDeviceRequest struct {
	Name       string `json:"name" validate:"required"`
	VesselID   string `json:"vessel_id,omitempty" validate:"omitempty,uuid"`
	OperatorID string `json:"operator_id,omitempty" validate:"omitempty,uuid"`
}

// ProvisionDeviceResponse carries the plaintext enrollment token. It is
// shown exactly once; only a hash is stored.
type ProvisionDeviceResponse struct {
	Device *models.Device `json:"device"`
	Token  string         `json:"token"`
}

// DeviceListResponse for GET /api/devices
type DeviceListResponse struct {
	Devices []*models.Device `json:"devices"`
	Total   int              `json:"total"`
}

// DevicesHandler handles kiosk device HTTP requests.
type DevicesHandler struct {
	deviceService services.DeviceService
	logger        *zap.Logger
}

// NewDevicesHandler creates a new devices handler.
func NewDevicesHandler(deviceService services.DeviceService, logger *zap.Logger) *DevicesHandler {
	return &DevicesHandler{
		deviceService: deviceService,
		logger:        logger,
	}
}

// RegisterRoutes registers the device handler's routes on the given mux.
func (h *DevicesHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(string(models.RoleGlobalAdmin), string(models.RoleFleetAdmin))

	mux.HandleFunc("GET /api/devices", admin(h.List))
	mux.HandleFunc("POST /api/devices", admin(h.Provision))
	mux.HandleFunc("DELETE /api/devices/{did}", admin(h.Deactivate))
}

// List handles GET /api/devices. An instance administrator names the
// operator with ?operator_id=; tenant admins list their own.
func (h *DevicesHandler) List(w http.ResponseWriter, r *http.Request) {
	operatorID, err := auth.RequireOperatorIDFromContext(r.Context())
	if err != nil {
		operatorID, err = uuid.Parse(r.URL.Query().Get("operator_id"))
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "operator_required", "Operator must be specified"))
			return
		}
	}

	devices, err := h.deviceService.List(r.Context(), operatorID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := DeviceListResponse{Devices: devices, Total: len(devices)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Provision handles POST /api/devices
func (h *DevicesHandler) Provision(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromClaims(w, r)
	if !ok {
		return
	}

	var req ProvisionDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	// The target operator comes from the body when named, otherwise
	// from the token. The service re-checks that a tenant admin can
	// only name their own operator.
	var operatorID uuid.UUID
	switch {
	case req.OperatorID != "":
		var err error
		operatorID, err = uuid.Parse(req.OperatorID)
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_operator_id", "Invalid operator ID format"))
			return
		}
	case actor.OperatorID != nil:
		operatorID = *actor.OperatorID
	default:
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "operator_required", "Operator must be specified"))
		return
	}

	provisionReq := services.ProvisionDeviceRequest{
		OperatorID: operatorID,
		Name:       req.Name,
	}
	if req.VesselID != "" {
		vesselID, err := uuid.Parse(req.VesselID)
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_vessel_id", "Invalid vessel ID format"))
			return
		}
		provisionReq.VesselID = &vesselID
	}

	result, err := h.deviceService.Provision(r.Context(), actor, provisionReq)
	if err != nil {
		h.logger.Warn("Failed to provision device",
			zap.String("operator_id", operatorID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := ProvisionDeviceResponse{Device: result.Device, Token: result.Token}
	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/devices/{did}
func (h *DevicesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := ParseDeviceID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.deviceService.Deactivate(r.Context(), deviceID); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// actorFromClaims reconstructs the acting user from token claims. An
// instance administrator's token has no operator, which leaves the
// actor instance-wide; the service re-checks role and operator on its
// own inputs.
func (h *DevicesHandler) actorFromClaims(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	claims, _ := auth.GetClaims(r.Context())
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"))
		return nil, false
	}

	actor := &models.User{
		ID:       userID,
		Role:     models.Role(claims.Role),
		IsActive: true,
	}
	if operatorID, err := auth.RequireOperatorIDFromContext(r.Context()); err == nil {
		actor.OperatorID = &operatorID
	}
	return actor, true
}

func (h *DevicesHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
