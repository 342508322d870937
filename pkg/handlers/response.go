package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
)

// ApiResponse is the envelope for every successful payload.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// validate checks request struct tags. Shared across handlers; the
// validator caches struct metadata internally.
var validate = validator.New()

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// DomainError maps the domain sentinels to HTTP status and error code.
// Unmapped errors fall through to 500.
func DomainError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		return ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrPeriodAlreadyOpen):
		return ErrorResponse(w, http.StatusConflict, "period_already_open", err.Error())
	case errors.Is(err, apperrors.ErrPeriodNotOpen):
		return ErrorResponse(w, http.StatusConflict, "period_not_open", err.Error())
	case errors.Is(err, apperrors.ErrVesselInactive):
		return ErrorResponse(w, http.StatusConflict, "vessel_inactive", err.Error())
	case errors.Is(err, apperrors.ErrRoleDenied):
		return ErrorResponse(w, http.StatusForbidden, "role_denied", err.Error())
	case errors.Is(err, apperrors.ErrTenantMismatch):
		return ErrorResponse(w, http.StatusForbidden, "tenant_mismatch", err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, apperrors.ErrDeviceNotRecognized):
		return ErrorResponse(w, http.StatusUnauthorized, "device_not_recognized", "Device not recognized")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
