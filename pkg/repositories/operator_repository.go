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

// OperatorRepository provides data access for fleet operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)
}

type operatorRepository struct{}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository() OperatorRepository {
	return &operatorRepository{}
}

var _ OperatorRepository = (*operatorRepository)(nil)

func (r *operatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO operators (name, tax_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query, operator.Name, operator.TaxID).
		Scan(&operator.ID, &operator.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT id, name, tax_id, created_at FROM operators WHERE id = $1`

	var operator models.Operator
	err := scope.Conn.QueryRow(ctx, query, id).
		Scan(&operator.ID, &operator.Name, &operator.TaxID, &operator.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return &operator, nil
}

func (r *operatorRepository) List(ctx context.Context) ([]*models.Operator, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT id, name, tax_id, created_at FROM operators ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query operators: %w", err)
	}
	defer rows.Close()

	var operators []*models.Operator
	for rows.Next() {
		var operator models.Operator
		if err := rows.Scan(&operator.ID, &operator.Name, &operator.TaxID, &operator.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, &operator)
	}

	return operators, rows.Err()
}
