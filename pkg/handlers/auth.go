package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// WebLoginRequest for POST /api/auth/web/login
type WebLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// KioskLoginRequest for POST /api/auth/kiosk/login. The device token is
// the plaintext enrollment token held by the tablet.
type KioskLoginRequest struct {
	OperatorID  string `json:"operator_id" validate:"required,uuid"`
	TaxID       string `json:"tax_id" validate:"required"`
	PIN         string `json:"pin" validate:"required,min=4"`
	DeviceToken string `json:"device_token" validate:"required"`
}

// LoginResponse carries the issued token for both vectors.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthHandler handles login and logout for both vectors.
type AuthHandler struct {
	authService auth.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService auth.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/web/login", h.WebLogin)
	mux.HandleFunc("POST /api/auth/kiosk/login", h.KioskLogin)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}

// WebLogin handles POST /api/auth/web/login
func (h *AuthHandler) WebLogin(w http.ResponseWriter, r *http.Request) {
	var req WebLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	result, err := h.authService.WebLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Web login failed", zap.String("email", req.Email))
		h.writeError(w, DomainError(w, err))
		return
	}

	auth.SetTokenCookie(w, result.Token, result.ExpiresAt)

	response := LoginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: result.User}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// KioskLogin handles POST /api/auth/kiosk/login
func (h *AuthHandler) KioskLogin(w http.ResponseWriter, r *http.Request) {
	var req KioskLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()))
		return
	}

	operatorID, err := uuid.Parse(req.OperatorID)
	if err != nil {
		h.writeError(w, ErrorResponse(w, http.StatusBadRequest, "invalid_operator_id", "Invalid operator ID format"))
		return
	}

	result, err := h.authService.KioskLogin(r.Context(), auth.KioskLoginRequest{
		OperatorID:  operatorID,
		TaxID:       req.TaxID,
		PIN:         req.PIN,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		h.logger.Info("Kiosk login failed", zap.String("operator_id", req.OperatorID))
		h.writeError(w, DomainError(w, err))
		return
	}

	response := LoginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: result.User}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout. Tokens are not revocable; this
// only clears the browser cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
