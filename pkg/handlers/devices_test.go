package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

type stubDeviceService struct {
	services.DeviceService

	actor       *models.User
	provisioned *services.ProvisionDeviceRequest
}

func (s *stubDeviceService) Provision(ctx context.Context, actor *models.User, req services.ProvisionDeviceRequest) (*services.ProvisionedDevice, error) {
	s.actor = actor
	s.provisioned = &req
	return &services.ProvisionedDevice{
		Device: &models.Device{ID: uuid.New(), OperatorID: req.OperatorID, Name: req.Name},
		Token:  "enrollment-token",
	}, nil
}

func provisionRequest(body string, role models.Role, operatorID *uuid.UUID) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/devices", strings.NewReader(body))
	claims := &auth.Claims{Role: string(role), Vector: auth.VectorWeb}
	claims.Subject = uuid.New().String()
	if operatorID != nil {
		claims.OperatorID = operatorID.String()
	}
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
}

func TestProvisionDevice_TenantAdminUsesTokenOperator(t *testing.T) {
	operatorID := uuid.New()
	stub := &stubDeviceService{}
	handler := NewDevicesHandler(stub, zap.NewNop())

	w := httptest.NewRecorder()
	handler.Provision(w, provisionRequest(`{"name": "Tablet puente"}`, models.RoleFleetAdmin, &operatorID))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, stub.provisioned)
	assert.Equal(t, operatorID, stub.provisioned.OperatorID)
	require.NotNil(t, stub.actor.OperatorID)
	assert.Equal(t, operatorID, *stub.actor.OperatorID)
}

func TestProvisionDevice_InstanceAdminNamesTargetOperator(t *testing.T) {
	targetID := uuid.New()
	stub := &stubDeviceService{}
	handler := NewDevicesHandler(stub, zap.NewNop())

	body := `{"name": "Tablet puente", "operator_id": "` + targetID.String() + `"}`
	w := httptest.NewRecorder()
	handler.Provision(w, provisionRequest(body, models.RoleGlobalAdmin, nil))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, stub.provisioned)
	assert.Equal(t, targetID, stub.provisioned.OperatorID)
	// The actor stays instance-wide so the service's cross-operator
	// gate applies.
	assert.Nil(t, stub.actor.OperatorID)
}

func TestProvisionDevice_InstanceAdminWithoutTargetRejected(t *testing.T) {
	stub := &stubDeviceService{}
	handler := NewDevicesHandler(stub, zap.NewNop())

	w := httptest.NewRecorder()
	handler.Provision(w, provisionRequest(`{"name": "Tablet puente"}`, models.RoleGlobalAdmin, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, stub.provisioned)
}
