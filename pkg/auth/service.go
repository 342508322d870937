package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/config"
	"github.com/harborwatch/fleetcheck-engine/pkg/crypto"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidToken         = errors.New("invalid token")
)

// LoginResult is returned by both vectors on success.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// KioskLoginRequest authenticates a crew member on an enrolled tablet.
// DeviceToken is the plaintext enrollment token issued at provisioning.
type KioskLoginRequest struct {
	OperatorID  uuid.UUID
	TaxID       string
	PIN         string
	DeviceToken string
}

// AuthService authenticates users and validates issued tokens.
type AuthService interface {
	// WebLogin authenticates an email and password. Crew accounts are
	// rejected regardless of credentials; they only exist on kiosks.
	WebLogin(ctx context.Context, email, password string) (*LoginResult, error)

	// KioskLogin authenticates tax ID and PIN on an enrolled device.
	// The device token is verified first so unknown hardware never
	// learns whether the account exists.
	KioskLogin(ctx context.Context, req KioskLoginRequest) (*LoginResult, error)

	// ValidateRequest extracts and validates a token from the request.
	// It checks the session cookie first (browser clients), then the
	// Authorization header with "Bearer" scheme (API and kiosk clients).
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type authService struct {
	users   repositories.UserRepository
	devices services.DeviceService
	cfg     config.AuthConfig
	logger  *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repositories.UserRepository,
	devices services.DeviceService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:   users,
		devices: devices,
		cfg:     cfg,
		logger:  logger.Named("auth-service"),
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) WebLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !user.IsActive || !user.CanUseWeb() {
		s.logger.Warn("Web login rejected",
			zap.String("user_id", user.ID.String()),
			zap.String("role", string(user.Role)),
			zap.Bool("active", user.IsActive))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !crypto.CheckSecret(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user, VectorWeb, "", s.cfg.WebTokenTTL)
}

func (s *authService) KioskLogin(ctx context.Context, req KioskLoginRequest) (*LoginResult, error) {
	device, err := s.devices.Verify(ctx, req.OperatorID, req.DeviceToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrDeviceNotRecognized) {
			return nil, apperrors.ErrDeviceNotRecognized
		}
		return nil, fmt.Errorf("verify device: %w", err)
	}

	user, err := s.users.GetByTaxID(ctx, req.OperatorID, req.TaxID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !user.IsActive || !crypto.CheckSecret(req.PIN, user.PINHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user, VectorKiosk, device.ID.String(), s.cfg.KioskTokenTTL)
}

func (s *authService) issue(user *models.User, vector, deviceID string, ttl time.Duration) (*LoginResult, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:     string(user.Role),
		Vector:   vector,
		DeviceID: deviceID,
	}
	if user.OperatorID != nil {
		claims.OperatorID = user.OperatorID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSigningKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("Issued token",
		zap.String("user_id", user.ID.String()),
		zap.String("vector", vector),
		zap.Time("expires_at", expiresAt))

	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	var tokenString string

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = cookie.Value
	} else {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			return nil, "", ErrMissingAuthorization
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, "", ErrInvalidAuthFormat
		}
		tokenString = parts[1]
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, "", err
	}
	return claims, tokenString, nil
}

func (s *authService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.TokenSigningKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
