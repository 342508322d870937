//go:build integration

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/testhelpers"
)

// fixedClaimsService resolves every request to the same claims,
// standing in for token validation so the middleware's scope handling
// can be exercised against a real pool.
type fixedClaimsService struct {
	claims *Claims
}

func (s *fixedClaimsService) WebLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	return nil, ErrInvalidToken
}

func (s *fixedClaimsService) KioskLogin(ctx context.Context, req KioskLoginRequest) (*LoginResult, error) {
	return nil, ErrInvalidToken
}

func (s *fixedClaimsService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	return s.claims, "token", nil
}

func adminMiddleware(t *testing.T, claims *Claims) *Middleware {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	return NewMiddleware(&fixedClaimsService{claims: claims}, testDB.DB, zap.NewNop())
}

func TestRequireRole_InstanceAdminGetsUnscopedConnection(t *testing.T) {
	claims := &Claims{Role: "global_admin", Vector: VectorWeb}
	claims.Subject = uuid.New().String()
	mw := adminMiddleware(t, claims)

	var sawScope bool
	handler := mw.RequireRole("global_admin", "fleet_admin")(func(w http.ResponseWriter, r *http.Request) {
		_, sawScope = database.GetTenantScope(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawScope, "handler should receive a database scope")
}

func TestRequireRole_TenantAdminGetsScopedConnection(t *testing.T) {
	claims := &Claims{Role: "fleet_admin", Vector: VectorWeb, OperatorID: uuid.New().String()}
	claims.Subject = uuid.New().String()
	mw := adminMiddleware(t, claims)

	var setting string
	handler := mw.RequireRole("global_admin", "fleet_admin")(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := database.GetTenantScope(r.Context())
		require.True(t, ok)
		require.NoError(t, scope.Conn.QueryRow(r.Context(),
			"SELECT current_setting('app.current_operator_id', true)").Scan(&setting))
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, claims.OperatorID, setting)
}

func TestRequireTenant_OperatorlessNonAdminRejected(t *testing.T) {
	claims := &Claims{Role: "shore", Vector: VectorWeb}
	claims.Subject = uuid.New().String()
	mw := adminMiddleware(t, claims)

	handler := mw.RequireTenant(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without an operator scope")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/vessels", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
