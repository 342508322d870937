package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/config"
	"github.com/harborwatch/fleetcheck-engine/pkg/crypto"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

type mockUserRepo struct {
	byEmail map[string]*models.User
	byTaxID map[string]*models.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) GetByTaxID(ctx context.Context, operatorID uuid.UUID, taxID string) (*models.User, error) {
	if u, ok := m.byTaxID[taxID]; ok && u.OperatorID != nil && *u.OperatorID == operatorID {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error { return nil }

type mockDeviceService struct {
	token  string
	device *models.Device
}

func (m *mockDeviceService) Provision(ctx context.Context, actor *models.User, req services.ProvisionDeviceRequest) (*services.ProvisionedDevice, error) {
	return nil, nil
}

func (m *mockDeviceService) Verify(ctx context.Context, operatorID uuid.UUID, token string) (*models.Device, error) {
	if m.device != nil && token == m.token && m.device.OperatorID == operatorID {
		return m.device, nil
	}
	return nil, apperrors.ErrDeviceNotRecognized
}

func (m *mockDeviceService) List(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error) {
	return nil, nil
}

func (m *mockDeviceService) Deactivate(ctx context.Context, id uuid.UUID) error { return nil }

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSigningKey: "test-signing-key",
		SessionKey:      "test-session-key",
		WebTokenTTL:     time.Hour,
		KioskTokenTTL:   time.Minute * 30,
	}
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := crypto.HashSecret(secret)
	require.NoError(t, err)
	return hash
}

func TestWebLogin_Success(t *testing.T) {
	operatorID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		OperatorID:   &operatorID,
		Email:        "shore@harbor.example",
		Role:         models.RoleShore,
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     true,
	}
	svc := NewAuthService(
		&mockUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	result, err := svc.WebLogin(context.Background(), "shore@harbor.example", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)
}

func TestWebLogin_WrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shore@harbor.example",
		Role:         models.RoleShore,
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     true,
	}
	svc := NewAuthService(
		&mockUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	_, err := svc.WebLogin(context.Background(), "shore@harbor.example", "battery-staple")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestWebLogin_UnknownEmailSameError(t *testing.T) {
	svc := NewAuthService(
		&mockUserRepo{byEmail: map[string]*models.User{}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	_, err := svc.WebLogin(context.Background(), "nobody@harbor.example", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestWebLogin_CrewBarred(t *testing.T) {
	operatorID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		OperatorID:   &operatorID,
		Email:        "crew@harbor.example",
		Role:         models.RoleCrew,
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     true,
	}
	svc := NewAuthService(
		&mockUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	// Even with the right password, crew never pass the web vector.
	_, err := svc.WebLogin(context.Background(), "crew@harbor.example", "correct-horse")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestKioskLogin_Success(t *testing.T) {
	operatorID := uuid.New()
	device := &models.Device{ID: uuid.New(), OperatorID: operatorID, IsActive: true}
	user := &models.User{
		ID:         uuid.New(),
		OperatorID: &operatorID,
		TaxID:      "12345678A",
		Role:       models.RoleCrew,
		PINHash:    mustHash(t, "4821"),
		IsActive:   true,
	}
	svc := NewAuthService(
		&mockUserRepo{byTaxID: map[string]*models.User{user.TaxID: user}},
		&mockDeviceService{token: "device-token", device: device},
		testAuthConfig(),
		zap.NewNop(),
	)

	result, err := svc.KioskLogin(context.Background(), KioskLoginRequest{
		OperatorID:  operatorID,
		TaxID:       "12345678A",
		PIN:         "4821",
		DeviceToken: "device-token",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestKioskLogin_UnknownDevice(t *testing.T) {
	operatorID := uuid.New()
	user := &models.User{
		ID:         uuid.New(),
		OperatorID: &operatorID,
		TaxID:      "12345678A",
		PINHash:    mustHash(t, "4821"),
		IsActive:   true,
	}
	svc := NewAuthService(
		&mockUserRepo{byTaxID: map[string]*models.User{user.TaxID: user}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	_, err := svc.KioskLogin(context.Background(), KioskLoginRequest{
		OperatorID:  operatorID,
		TaxID:       "12345678A",
		PIN:         "4821",
		DeviceToken: "not-enrolled",
	})
	assert.ErrorIs(t, err, apperrors.ErrDeviceNotRecognized)
}

func TestKioskLogin_WrongPIN(t *testing.T) {
	operatorID := uuid.New()
	device := &models.Device{ID: uuid.New(), OperatorID: operatorID, IsActive: true}
	user := &models.User{
		ID:         uuid.New(),
		OperatorID: &operatorID,
		TaxID:      "12345678A",
		PINHash:    mustHash(t, "4821"),
		IsActive:   true,
	}
	svc := NewAuthService(
		&mockUserRepo{byTaxID: map[string]*models.User{user.TaxID: user}},
		&mockDeviceService{token: "device-token", device: device},
		testAuthConfig(),
		zap.NewNop(),
	)

	_, err := svc.KioskLogin(context.Background(), KioskLoginRequest{
		OperatorID:  operatorID,
		TaxID:       "12345678A",
		PIN:         "0000",
		DeviceToken: "device-token",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestValidateRequest_BearerRoundTrip(t *testing.T) {
	operatorID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		OperatorID:   &operatorID,
		Email:        "shore@harbor.example",
		Role:         models.RoleShore,
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     true,
	}
	svc := NewAuthService(
		&mockUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		&mockDeviceService{},
		testAuthConfig(),
		zap.NewNop(),
	)

	result, err := svc.WebLogin(context.Background(), "shore@harbor.example", "correct-horse")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/vessels", nil)
	r.Header.Set("Authorization", "Bearer "+result.Token)

	claims, token, err := svc.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, result.Token, token)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, operatorID.String(), claims.OperatorID)
	assert.Equal(t, string(models.RoleShore), claims.Role)
	assert.Equal(t, VectorWeb, claims.Vector)
}

func TestValidateRequest_TamperedToken(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockDeviceService{}, testAuthConfig(), zap.NewNop())

	other := NewAuthService(&mockUserRepo{}, &mockDeviceService{}, config.AuthConfig{
		TokenSigningKey: "different-key",
		WebTokenTTL:     time.Hour,
		KioskTokenTTL:   time.Hour,
	}, zap.NewNop())

	operatorID := uuid.New()
	foreign := other.(*authService)
	result, err := foreign.issue(&models.User{ID: uuid.New(), OperatorID: &operatorID, Role: models.RoleShore}, VectorWeb, "", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/vessels", nil)
	r.Header.Set("Authorization", "Bearer "+result.Token)

	_, _, err = svc.ValidateRequest(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRequest_MissingAuthorization(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockDeviceService{}, testAuthConfig(), zap.NewNop())

	r := httptest.NewRequest("GET", "/api/vessels", nil)
	_, _, err := svc.ValidateRequest(r)
	assert.ErrorIs(t, err, ErrMissingAuthorization)
}
