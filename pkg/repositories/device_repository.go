package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// DeviceRepository provides data access for enrolled kiosk devices.
type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	ListActiveByOperator(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type deviceRepository struct{}

// NewDeviceRepository creates a new DeviceRepository.
func NewDeviceRepository() DeviceRepository {
	return &deviceRepository{}
}

var _ DeviceRepository = (*deviceRepository)(nil)

func (r *deviceRepository) Create(ctx context.Context, device *models.Device) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO devices (operator_id, vessel_id, name, token_hash, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, is_active, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		device.OperatorID,
		nullUUID(device.VesselID),
		device.Name,
		device.TokenHash,
	).Scan(&device.ID, &device.IsActive, &device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *deviceRepository) ListActiveByOperator(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, operator_id, vessel_id, name, token_hash, is_active, created_at
		FROM devices
		WHERE operator_id = $1 AND is_active
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var device models.Device
		if err := rows.Scan(&device.ID, &device.OperatorID, &device.VesselID, &device.Name,
			&device.TokenHash, &device.IsActive, &device.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &device)
	}

	return devices, rows.Err()
}

func (r *deviceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE devices SET is_active = false WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
