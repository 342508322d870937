package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/database"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	db          *database.DB
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, db *database.DB, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		db:          db,
		logger:      logger,
	}
}

// RequireAuth validates the request token and sets claims and the raw
// token in context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

// RequireTenant validates the token and opens a tenant-scoped database
// connection for the request. Instance administrators carry no operator
// in their token and get an unscoped connection instead, so they can
// reach any tenant's rows. Other operator-less tokens are rejected. The
// scope is closed when the handler returns.
func (m *Middleware) RequireTenant(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := RequireOperatorIDFromContext(r.Context())
		if err != nil {
			claims, _ := GetClaims(r.Context())
			if claims == nil || claims.Role != "global_admin" {
				m.forbidden(w, "Operator scope required")
				return
			}

			scope, err := m.db.WithoutTenant(r.Context())
			if err != nil {
				m.internalError(w, "Database unavailable")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(database.SetTenantScope(r.Context(), scope)))
			return
		}

		scope, err := m.db.WithTenant(r.Context(), operatorID)
		if err != nil {
			m.logger.Error("Failed to acquire tenant scope",
				zap.String("operator_id", operatorID.String()),
				zap.Error(err))
			m.internalError(w, "Database unavailable")
			return
		}
		defer scope.Close()

		next(w, r.WithContext(database.SetTenantScope(r.Context(), scope)))
	})
}

// RequireRole wraps RequireTenant and additionally checks the token
// role against an allow list.
func (m *Middleware) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireTenant(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetClaims(r.Context())
			if claims == nil || !allowed[claims.Role] {
				if claims != nil {
					m.logger.Warn("Role denied",
						zap.String("role", claims.Role),
						zap.String("path", r.URL.Path))
				}
				m.forbidden(w, "Insufficient role")
				return
			}
			next(w, r)
		})
	}
}

// RequireInstanceAdmin validates the token and requires the instance
// administrator role. No tenant scope is opened: instance endpoints
// operate across operators.
func (m *Middleware) RequireInstanceAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := GetClaims(r.Context())
		if claims == nil || claims.Role != "global_admin" {
			m.forbidden(w, "Instance administrator required")
			return
		}

		scope, err := m.db.WithoutTenant(r.Context())
		if err != nil {
			m.internalError(w, "Database unavailable")
			return
		}
		defer scope.Close()

		next(w, r.WithContext(database.SetTenantScope(r.Context(), scope)))
	})
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusForbidden, "forbidden", message)
}

func (m *Middleware) internalError(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusInternalServerError, "internal_error", message)
}

func (m *Middleware) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
