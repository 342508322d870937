package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/crypto"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
)

// ProvisionDeviceRequest enrolls a kiosk tablet for an operator,
// optionally pinned to a single vessel.
type ProvisionDeviceRequest struct {
	OperatorID uuid.UUID
	VesselID   *uuid.UUID
	Name       string
}

// ProvisionedDevice is the enrollment result. Token carries the
// plaintext enrollment token exactly once; only its hash is stored.
type ProvisionedDevice struct {
	Device *models.Device
	Token  string
}

// DeviceService manages kiosk device enrollment and verification.
type DeviceService interface {
	// Provision enrolls a new device. The acting user must hold a
	// provisioning role and, when the device is pinned to a vessel,
	// that vessel must belong to the same operator.
	Provision(ctx context.Context, actor *models.User, req ProvisionDeviceRequest) (*ProvisionedDevice, error)

	// Verify resolves a presented enrollment token to an active device
	// of the operator. Unknown tokens return ErrDeviceNotRecognized.
	Verify(ctx context.Context, operatorID uuid.UUID, token string) (*models.Device, error)

	List(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type deviceService struct {
	devices repositories.DeviceRepository
	vessels repositories.VesselRepository
	logger  *zap.Logger
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(
	devices repositories.DeviceRepository,
	vessels repositories.VesselRepository,
	logger *zap.Logger,
) DeviceService {
	return &deviceService{
		devices: devices,
		vessels: vessels,
		logger:  logger.Named("device-service"),
	}
}

var _ DeviceService = (*deviceService)(nil)

func (s *deviceService) Provision(ctx context.Context, actor *models.User, req ProvisionDeviceRequest) (*ProvisionedDevice, error) {
	if !actor.CanProvisionDevices() {
		return nil, apperrors.ErrRoleDenied
	}
	if actor.OperatorID != nil && *actor.OperatorID != req.OperatorID {
		return nil, apperrors.ErrTenantMismatch
	}

	if req.VesselID != nil {
		vessel, err := s.vessels.GetByID(ctx, *req.VesselID)
		if err != nil {
			return nil, fmt.Errorf("resolve vessel: %w", err)
		}
		if vessel.OperatorID != req.OperatorID {
			return nil, apperrors.ErrTenantMismatch
		}
	}

	plaintext, hash, err := crypto.GenerateDeviceToken()
	if err != nil {
		return nil, fmt.Errorf("generate device token: %w", err)
	}

	device := &models.Device{
		OperatorID: req.OperatorID,
		VesselID:   req.VesselID,
		Name:       req.Name,
		TokenHash:  hash,
		IsActive:   true,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	s.logger.Info("Provisioned kiosk device",
		zap.String("device_id", device.ID.String()),
		zap.String("operator_id", req.OperatorID.String()),
		zap.String("provisioned_by", actor.ID.String()))

	return &ProvisionedDevice{Device: device, Token: plaintext}, nil
}

func (s *deviceService) Verify(ctx context.Context, operatorID uuid.UUID, token string) (*models.Device, error) {
	devices, err := s.devices.ListActiveByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	for _, device := range devices {
		if crypto.VerifyDeviceToken(token, device.TokenHash) {
			return device, nil
		}
	}
	return nil, apperrors.ErrDeviceNotRecognized
}

func (s *deviceService) List(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error) {
	return s.devices.ListActiveByOperator(ctx, operatorID)
}

func (s *deviceService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.devices.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate device: %w", err)
	}
	s.logger.Info("Deactivated kiosk device", zap.String("device_id", id.String()))
	return nil
}
