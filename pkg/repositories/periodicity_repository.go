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

// PeriodicityRepository provides data access for the periodicity catalog.
type PeriodicityRepository interface {
	Create(ctx context.Context, periodicity *models.Periodicity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Periodicity, error)
	List(ctx context.Context) ([]*models.Periodicity, error)
}

type periodicityRepository struct{}

// NewPeriodicityRepository creates a new PeriodicityRepository.
func NewPeriodicityRepository() PeriodicityRepository {
	return &periodicityRepository{}
}

var _ PeriodicityRepository = (*periodicityRepository)(nil)

func (r *periodicityRepository) Create(ctx context.Context, periodicity *models.Periodicity) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO periodicities (name, interval_months)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query, periodicity.Name, periodicity.IntervalMonths).
		Scan(&periodicity.ID, &periodicity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create periodicity: %w", err)
	}

	return nil
}

func (r *periodicityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Periodicity, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT id, name, interval_months, created_at FROM periodicities WHERE id = $1`

	var periodicity models.Periodicity
	err := scope.Conn.QueryRow(ctx, query, id).
		Scan(&periodicity.ID, &periodicity.Name, &periodicity.IntervalMonths, &periodicity.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get periodicity: %w", err)
	}

	return &periodicity, nil
}

func (r *periodicityRepository) List(ctx context.Context) ([]*models.Periodicity, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT id, name, interval_months, created_at FROM periodicities ORDER BY interval_months`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query periodicities: %w", err)
	}
	defer rows.Close()

	var periodicities []*models.Periodicity
	for rows.Next() {
		var periodicity models.Periodicity
		if err := rows.Scan(&periodicity.ID, &periodicity.Name, &periodicity.IntervalMonths, &periodicity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan periodicity: %w", err)
		}
		periodicities = append(periodicities, &periodicity)
	}

	return periodicities, rows.Err()
}
