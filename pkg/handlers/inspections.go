package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// OpenPeriodRequest for POST /api/vessels/{vid}/periods. StartDate
// defaults to today when omitted.
type OpenPeriodRequest struct {
	PeriodicityID string `json:"periodicity_id" validate:"required,uuid"`
	StartDate     string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SubmitRecordRequest for POST /api/periods/{pid}/records
type SubmitRecordRequest struct {
	ResourceID    string                  `json:"resource_id" validate:"required,uuid"`
	GeneralRemark string                  `json:"remark,omitempty"`
	Checklist     models.ChecklistPayload `json:"checklist,omitempty"`
	Operational   bool                    `json:"operational"`
}

// PeriodListResponse for GET /api/vessels/{vid}/periods
type PeriodListResponse struct {
	Periods []*models.InspectionPeriod `json:"periods"`
	Total   int                        `json:"total"`
}

// OverdueSweepResponse reports how many periods an overdue sweep moved.
type OverdueSweepResponse struct {
	Transitioned int64 `json:"transitioned"`
}

// InspectionsHandler handles inspection period and record HTTP requests.
type InspectionsHandler struct {
	inspectionService services.InspectionService
	logger            *zap.Logger
}

// NewInspectionsHandler creates a new inspections handler.
func NewInspectionsHandler(inspectionService services.InspectionService, logger *zap.Logger) *InspectionsHandler {
	return &InspectionsHandler{
		inspectionService: inspectionService,
		logger:            logger,
	}
}

// RegisterRoutes registers the inspection handler's routes on the given mux.
func (h *InspectionsHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := mw.RequireRole(string(models.RoleGlobalAdmin), string(models.RoleFleetAdmin))

	mux.HandleFunc("GET /api/vessels/{vid}/periods", mw.RequireTenant(h.ListPeriods))
	mux.HandleFunc("POST /api/vessels/{vid}/periods", admin(h.OpenPeriod))
	mux.HandleFunc("POST /api/periods/{pid}/close", admin(h.ClosePeriod))
	mux.HandleFunc("POST /api/periods/{pid}/records", mw.RequireTenant(h.SubmitRecord))
	mux.HandleFunc("GET /api/periods/{pid}/resources/{rid}", mw.RequireTenant(h.GetResourceStatus))
	mux.HandleFunc("POST /api/admin/periods/overdue-sweep", mw.RequireInstanceAdmin(h.OverdueSweep))
}

// ListPeriods handles GET /api/vessels/{vid}/periods
func (h *InspectionsHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	periods, err := h.inspectionService.ListPeriods(r.Context(), vesselID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := PeriodListResponse{Periods: periods, Total: len(periods)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// OpenPeriod handles POST /api/vessels/{vid}/periods
func (h *InspectionsHandler) OpenPeriod(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := ParseVesselID(w, r, h.logger)
	if !ok {
		return
	}

	var req OpenPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	periodicityID, err := uuid.Parse(req.PeriodicityID)
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_periodicity_id", "Invalid periodicity ID format"))
		return
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		start, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_start_date", "Start date must be YYYY-MM-DD"))
			return
		}
	}

	period, err := h.inspectionService.OpenPeriod(r.Context(), vesselID, periodicityID, start)
	if err != nil {
		h.logger.Warn("Failed to open period",
			zap.String("vessel_id", vesselID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: period}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ClosePeriod handles POST /api/periods/{pid}/close
func (h *InspectionsHandler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.inspectionService.ClosePeriod(r.Context(), periodID); err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SubmitRecord handles POST /api/periods/{pid}/records. Crew included:
// this is the kiosk's main write path.
func (h *InspectionsHandler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}

	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"))
		return
	}

	var req SubmitRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		h.respondErr(w, ErrorResponse(w, http.StatusBadRequest, "invalid_resource_id", "Invalid resource ID format"))
		return
	}

	record, err := h.inspectionService.SubmitRecord(r.Context(), &services.SubmitRecordRequest{
		PeriodID:        periodID,
		ResourceID:      resourceID,
		RecordedBy:      userID,
		GeneralRemark:   req.GeneralRemark,
		Checklist:       req.Checklist,
		OperationalHint: req.Operational,
	})
	if err != nil {
		h.logger.Warn("Failed to submit record",
			zap.String("period_id", periodID.String()),
			zap.Error(err))
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetResourceStatus handles GET /api/periods/{pid}/resources/{rid}
func (h *InspectionsHandler) GetResourceStatus(w http.ResponseWriter, r *http.Request) {
	periodID, ok := ParsePeriodID(w, r, h.logger)
	if !ok {
		return
	}
	resourceID, ok := ParseResourceID(w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.inspectionService.GetResourceStatus(r.Context(), periodID, resourceID)
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// OverdueSweep handles POST /api/admin/periods/overdue-sweep. Instance
// administrators run this as a boundary check; the engine has no
// internal scheduler.
func (h *InspectionsHandler) OverdueSweep(w http.ResponseWriter, r *http.Request) {
	transitioned, err := h.inspectionService.MarkOverduePeriods(r.Context(), time.Now().UTC())
	if err != nil {
		h.respondErr(w, DomainError(w, err))
		return
	}

	response := OverdueSweepResponse{Transitioned: transitioned}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *InspectionsHandler) respondErr(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
