// Package auth implements the two authentication vectors: web login
// with email and password for shore-side roles, and kiosk login with
// tax ID, PIN, and an enrolled device token for crew tablets. Both
// vectors issue HS256 tokens signed with the instance key.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Vector names carried in issued tokens.
const (
	VectorWeb   = "web"
	VectorKiosk = "kiosk"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing token claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw token string.
	TokenKey contextKey = "token"
)

// Claims is the token payload issued by both vectors. Subject holds
// the user UUID. OperatorID is empty for instance-level accounts.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID string `json:"oid,omitempty"` // Operator UUID, empty for instance admins
	Role       string `json:"role,omitempty"`
	Vector     string `json:"vec,omitempty"` // "web" or "kiosk"
	DeviceID   string `json:"did,omitempty"` // Kiosk vector only
}

// GetClaims retrieves token claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetOperatorIDFromContext extracts the operator ID from claims in the
// context. Returns uuid.Nil for instance-level accounts or when not
// authenticated.
func GetOperatorIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil || claims.OperatorID == "" {
		return uuid.Nil
	}
	operatorID, err := uuid.Parse(claims.OperatorID)
	if err != nil {
		return uuid.Nil
	}
	return operatorID
}

// RequireUserIDFromContext extracts the user UUID from context and
// returns an error if missing or malformed.
func RequireUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, fmt.Errorf("authentication required: no claims in context")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token: %w", err)
	}
	return userID, nil
}

// RequireOperatorIDFromContext extracts the operator ID from context
// and returns an error when absent. Instance-level accounts carry no
// operator and fail this check on tenant-scoped endpoints.
func RequireOperatorIDFromContext(ctx context.Context) (uuid.UUID, error) {
	operatorID := GetOperatorIDFromContext(ctx)
	if operatorID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("operator ID not found in context")
	}
	return operatorID, nil
}
