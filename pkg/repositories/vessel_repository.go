package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// VesselRepository provides data access for vessels.
type VesselRepository interface {
	Create(ctx context.Context, vessel *models.Vessel) error
	Update(ctx context.Context, vessel *models.Vessel) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vessel, error)
	ListByOperator(ctx context.Context, operatorID uuid.UUID, activeOnly bool) ([]*models.Vessel, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type vesselRepository struct{}

// NewVesselRepository creates a new VesselRepository.
func NewVesselRepository() VesselRepository {
	return &vesselRepository{}
}

var _ VesselRepository = (*vesselRepository)(nil)

const vesselColumns = `id, operator_id, name, registration, length_m, gross_tonnage, capacity, is_active, created_at, updated_at`

func scanVessel(row pgx.Row) (*models.Vessel, error) {
	var vessel models.Vessel
	err := row.Scan(&vessel.ID, &vessel.OperatorID, &vessel.Name, &vessel.Registration,
		&vessel.LengthM, &vessel.GrossTonnage, &vessel.Capacity,
		&vessel.IsActive, &vessel.CreatedAt, &vessel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &vessel, nil
}

func (r *vesselRepository) Create(ctx context.Context, vessel *models.Vessel) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO vessels (operator_id, name, registration, length_m, gross_tonnage, capacity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, is_active, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		vessel.OperatorID,
		vessel.Name,
		vessel.Registration,
		vessel.LengthM,
		vessel.GrossTonnage,
		vessel.Capacity,
	).Scan(&vessel.ID, &vessel.IsActive, &vessel.CreatedAt, &vessel.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create vessel: %w", err)
	}

	return nil
}

func (r *vesselRepository) Update(ctx context.Context, vessel *models.Vessel) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE vessels
		SET name = $2, registration = $3, length_m = $4, gross_tonnage = $5, capacity = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		vessel.ID,
		vessel.Name,
		vessel.Registration,
		vessel.LengthM,
		vessel.GrossTonnage,
		vessel.Capacity,
	).Scan(&vessel.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update vessel: %w", err)
	}

	return nil
}

func (r *vesselRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vessel, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + vesselColumns + ` FROM vessels WHERE id = $1`

	vessel, err := scanVessel(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get vessel: %w", err)
	}

	return vessel, nil
}

func (r *vesselRepository) ListByOperator(ctx context.Context, operatorID uuid.UUID, activeOnly bool) ([]*models.Vessel, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + vesselColumns + ` FROM vessels WHERE operator_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vessels: %w", err)
	}
	defer rows.Close()

	var vessels []*models.Vessel
	for rows.Next() {
		vessel, err := scanVessel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vessel: %w", err)
		}
		vessels = append(vessels, vessel)
	}

	return vessels, rows.Err()
}

func (r *vesselRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE vessels SET is_active = false, updated_at = now() WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate vessel: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
