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

// AssignmentRepository provides data access for the vessel/resource matrix.
type AssignmentRepository interface {
	// ReconcileVessel applies the computed assignment set for one
	// vessel in a single transaction: missing rows are created, rows
	// without manual override are overwritten, rows with manual
	// override are left untouched. Concurrent readers observe either
	// the full reconciliation or none of it.
	ReconcileVessel(ctx context.Context, vesselID uuid.UUID, computed []models.ComputedAssignment) error

	Get(ctx context.Context, vesselID, resourceID uuid.UUID) (*models.Assignment, error)
	ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.Assignment, error)

	// SetManualOverride records a direct human edit: quantity and
	// visibility are written and the override flag is raised, making
	// the row immune to synchronization until cleared.
	SetManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID, quantity int, visible bool) error

	// ClearManualOverride lowers the override flag. The caller is
	// expected to resynchronize the vessel afterwards.
	ClearManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID) error

	// PruneStale deletes rows whose resource is not in the applicable
	// set anymore. Maintenance only; never called by synchronization.
	PruneStale(ctx context.Context, vesselID uuid.UUID, applicable []uuid.UUID) (int64, error)
}

type assignmentRepository struct{}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository() AssignmentRepository {
	return &assignmentRepository{}
}

var _ AssignmentRepository = (*assignmentRepository)(nil)

const assignmentColumns = `id, vessel_id, resource_id, quantity, visible, manual_override, created_at, updated_at`

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.VesselID, &a.ResourceID, &a.Quantity, &a.Visible,
		&a.ManualOverride, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ReconcileVessel(ctx context.Context, vesselID uuid.UUID, computed []models.ComputedAssignment) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reconcile transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conditional upsert: the WHERE clause makes manually overridden
	// rows a no-op without ever reading the flag outside the
	// transaction, so the flag's post-write value always wins.
	query := `
		INSERT INTO vessel_resource_matrix (vessel_id, resource_id, quantity, visible, manual_override)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (vessel_id, resource_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    visible = EXCLUDED.visible,
		    updated_at = now()
		WHERE vessel_resource_matrix.manual_override = false`

	for _, c := range computed {
		if _, err := tx.Exec(ctx, query, vesselID, c.ResourceID, c.Quantity, c.Visible); err != nil {
			return fmt.Errorf("failed to reconcile assignment for resource %s: %w", c.ResourceID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reconcile transaction: %w", err)
	}

	return nil
}

func (r *assignmentRepository) Get(ctx context.Context, vesselID, resourceID uuid.UUID) (*models.Assignment, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + assignmentColumns + ` FROM vessel_resource_matrix WHERE vessel_id = $1 AND resource_id = $2`

	assignment, err := scanAssignment(scope.Conn.QueryRow(ctx, query, vesselID, resourceID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.Assignment, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + assignmentColumns + ` FROM vessel_resource_matrix WHERE vessel_id = $1 ORDER BY resource_id`

	rows, err := scope.Conn.Query(ctx, query, vesselID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

func (r *assignmentRepository) SetManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID, quantity int, visible bool) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE vessel_resource_matrix
		SET quantity = $3, visible = $4, manual_override = true, updated_at = now()
		WHERE vessel_id = $1 AND resource_id = $2`

	result, err := scope.Conn.Exec(ctx, query, vesselID, resourceID, quantity, visible)
	if err != nil {
		return fmt.Errorf("failed to set manual override: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *assignmentRepository) ClearManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE vessel_resource_matrix
		SET manual_override = false, updated_at = now()
		WHERE vessel_id = $1 AND resource_id = $2`

	result, err := scope.Conn.Exec(ctx, query, vesselID, resourceID)
	if err != nil {
		return fmt.Errorf("failed to clear manual override: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *assignmentRepository) PruneStale(ctx context.Context, vesselID uuid.UUID, applicable []uuid.UUID) (int64, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	query := `DELETE FROM vessel_resource_matrix WHERE vessel_id = $1 AND resource_id != ALL($2)`

	result, err := scope.Conn.Exec(ctx, query, vesselID, applicable)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale assignments: %w", err)
	}

	return result.RowsAffected(), nil
}
