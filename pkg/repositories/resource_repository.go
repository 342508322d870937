package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// ResourceRepository provides data access for resource definitions.
type ResourceRepository interface {
	Create(ctx context.Context, resource *models.ResourceDefinition) error
	Update(ctx context.Context, resource *models.ResourceDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ResourceDefinition, error)

	// ListApplicable returns the union of shared definitions and
	// definitions owned by the given operator. This is the applicable
	// resource set of the matrix synchronizer.
	ListApplicable(ctx context.Context, operatorID uuid.UUID) ([]*models.ResourceDefinition, error)

	// UpsertShared inserts or updates a shared (operator-less)
	// definition keyed by name. Used by catalog seeding; idempotent.
	UpsertShared(ctx context.Context, resource *models.ResourceDefinition) error
}

type resourceRepository struct{}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository() ResourceRepository {
	return &resourceRepository{}
}

var _ ResourceRepository = (*resourceRepository)(nil)

const resourceColumns = `id, operator_id, name, purpose, periodicity_id, requirements, rule_contract, created_at, updated_at`

func contractValue(c *models.RuleContract) any {
	if c == nil {
		return nil
	}
	return jsonbValue(c)
}

func scanResource(row pgx.Row) (*models.ResourceDefinition, error) {
	var resource models.ResourceDefinition
	var requirements, contract []byte
	err := row.Scan(&resource.ID, &resource.OperatorID, &resource.Name, &resource.Purpose,
		&resource.PeriodicityID, &requirements, &contract,
		&resource.CreatedAt, &resource.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &resource.Requirements); err != nil {
			return nil, fmt.Errorf("failed to decode requirements: %w", err)
		}
	}
	// Contracts are parsed leniently: a malformed stored document
	// behaves like an absent contract instead of poisoning reads.
	resource.Contract = models.ParseRuleContract(contract)
	return &resource, nil
}

func (r *resourceRepository) Create(ctx context.Context, resource *models.ResourceDefinition) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO resource_definitions (operator_id, name, purpose, periodicity_id, requirements, rule_contract)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		nullUUID(resource.OperatorID),
		resource.Name,
		resource.Purpose,
		resource.PeriodicityID,
		jsonbValue(resource.Requirements),
		contractValue(resource.Contract),
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create resource definition: %w", err)
	}

	return nil
}

func (r *resourceRepository) Update(ctx context.Context, resource *models.ResourceDefinition) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE resource_definitions
		SET name = $2, purpose = $3, periodicity_id = $4, requirements = $5, rule_contract = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		resource.ID,
		resource.Name,
		resource.Purpose,
		resource.PeriodicityID,
		jsonbValue(resource.Requirements),
		contractValue(resource.Contract),
	).Scan(&resource.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update resource definition: %w", err)
	}

	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ResourceDefinition, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + resourceColumns + ` FROM resource_definitions WHERE id = $1`

	resource, err := scanResource(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resource definition: %w", err)
	}

	return resource, nil
}

func (r *resourceRepository) ListApplicable(ctx context.Context, operatorID uuid.UUID) ([]*models.ResourceDefinition, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT ` + resourceColumns + `
		FROM resource_definitions
		WHERE operator_id IS NULL OR operator_id = $1
		ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource definitions: %w", err)
	}
	defer rows.Close()

	var resources []*models.ResourceDefinition
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource definition: %w", err)
		}
		resources = append(resources, resource)
	}

	return resources, rows.Err()
}

func (r *resourceRepository) UpsertShared(ctx context.Context, resource *models.ResourceDefinition) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO resource_definitions (operator_id, name, purpose, periodicity_id, requirements, rule_contract)
		VALUES (NULL, $1, $2, $3, $4, $5)
		ON CONFLICT (name) WHERE operator_id IS NULL DO UPDATE
		SET purpose = EXCLUDED.purpose,
		    periodicity_id = EXCLUDED.periodicity_id,
		    requirements = EXCLUDED.requirements,
		    rule_contract = EXCLUDED.rule_contract,
		    updated_at = now()
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		resource.Name,
		resource.Purpose,
		resource.PeriodicityID,
		jsonbValue(resource.Requirements),
		contractValue(resource.Contract),
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert shared resource definition: %w", err)
	}

	return nil
}
