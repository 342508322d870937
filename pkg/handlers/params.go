package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseVesselID extracts and validates the vessel ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on
// error (after writing an error response). Expects path parameter: vid
func ParseVesselID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "vid", "invalid_vessel_id", "Invalid vessel ID format", logger)
}

// ParseResourceID extracts and validates the resource definition ID from
// the request path. Expects path parameter: rid
func ParseResourceID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "rid", "invalid_resource_id", "Invalid resource ID format", logger)
}

// ParsePeriodID extracts and validates the inspection period ID from the
// request path. Expects path parameter: pid
func ParsePeriodID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_period_id", "Invalid period ID format", logger)
}

// ParseDeviceID extracts and validates the device ID from the request
// path. Expects path parameter: did
func ParseDeviceID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "did", "invalid_device_id", "Invalid device ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
