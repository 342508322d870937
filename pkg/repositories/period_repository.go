package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// PeriodRepository provides data access for inspection periods.
type PeriodRepository interface {
	Create(ctx context.Context, period *models.InspectionPeriod) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.InspectionPeriod, error)
	GetOpen(ctx context.Context, vesselID, periodicityID uuid.UUID) (*models.InspectionPeriod, error)
	ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.InspectionPeriod, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PeriodStatus) error

	// MarkOverdue transitions every open period whose end date has
	// elapsed to overdue and returns how many were transitioned.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type periodRepository struct{}

// NewPeriodRepository creates a new PeriodRepository.
func NewPeriodRepository() PeriodRepository {
	return &periodRepository{}
}

var _ PeriodRepository = (*periodRepository)(nil)

const periodColumns = `id, vessel_id, periodicity_id, start_date, end_date, status, created_at`

func scanPeriod(row pgx.Row) (*models.InspectionPeriod, error) {
	var p models.InspectionPeriod
	err := row.Scan(&p.ID, &p.VesselID, &p.PeriodicityID, &p.StartDate, &p.EndDate,
		&p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodRepository) Create(ctx context.Context, period *models.InspectionPeriod) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO inspection_periods (vessel_id, periodicity_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		period.VesselID,
		period.PeriodicityID,
		period.StartDate,
		period.EndDate,
		period.Status,
	).Scan(&period.ID, &period.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Partial unique index on open periods per (vessel, periodicity).
			return apperrors.ErrPeriodAlreadyOpen
		}
		return fmt.Errorf("failed to create inspection period: %w", err)
	}

	return nil
}

func (r *periodRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InspectionPeriod, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + periodColumns + ` FROM inspection_periods WHERE id = $1`

	period, err := scanPeriod(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inspection period: %w", err)
	}

	return period, nil
}

func (r *periodRepository) GetOpen(ctx context.Context, vesselID, periodicityID uuid.UUID) (*models.InspectionPeriod, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT ` + periodColumns + `
		FROM inspection_periods
		WHERE vessel_id = $1 AND periodicity_id = $2 AND status = $3`

	period, err := scanPeriod(scope.Conn.QueryRow(ctx, query, vesselID, periodicityID, models.PeriodOpen))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open inspection period: %w", err)
	}

	return period, nil
}

func (r *periodRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.InspectionPeriod, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + periodColumns + ` FROM inspection_periods WHERE vessel_id = $1 ORDER BY start_date DESC`

	rows, err := scope.Conn.Query(ctx, query, vesselID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspection periods: %w", err)
	}
	defer rows.Close()

	var periods []*models.InspectionPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection period: %w", err)
		}
		periods = append(periods, period)
	}

	return periods, rows.Err()
}

func (r *periodRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PeriodStatus) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE inspection_periods SET status = $2 WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update period status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *periodRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE inspection_periods
		SET status = $1
		WHERE status = $2 AND end_date < $3`

	result, err := scope.Conn.Exec(ctx, query, models.PeriodOverdue, models.PeriodOpen, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue periods: %w", err)
	}

	return result.RowsAffected(), nil
}
