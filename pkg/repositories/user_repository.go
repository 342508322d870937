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

// UserRepository provides data access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail looks an account up for the web vector. Email is
	// globally unique among accounts that have one.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByTaxID looks an account up for the kiosk vector, scoped to
	// one operator.
	GetByTaxID(ctx context.Context, operatorID uuid.UUID, taxID string) (*models.User, error)

	// Deactivate is the only removal primitive. Rows are never deleted
	// so recorded inspections keep a valid recording identity.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type userRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

var _ UserRepository = (*userRepository)(nil)

const userColumns = `id, operator_id, tax_id, email, role, password_hash, pin_hash, is_active, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var email, passwordHash, pinHash *string
	err := row.Scan(&user.ID, &user.OperatorID, &user.TaxID, &email, &user.Role,
		&passwordHash, &pinHash, &user.IsActive, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if email != nil {
		user.Email = *email
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if pinHash != nil {
		user.PINHash = *pinHash
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO users (operator_id, tax_id, email, role, password_hash, pin_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, is_active, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		nullUUID(user.OperatorID),
		user.TaxID,
		nullString(user.Email),
		user.Role,
		nullString(user.PasswordHash),
		nullString(user.PINHash),
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetByTaxID(ctx context.Context, operatorID uuid.UUID, taxID string) (*models.User, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE operator_id = $1 AND tax_id = $2`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, operatorID, taxID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by tax ID: %w", err)
	}

	return user, nil
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE users SET is_active = false WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
