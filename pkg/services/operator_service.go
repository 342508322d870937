package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/crypto"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
)

// CreateUserRequest creates an account under an operator. Password
// backs the web vector, PIN the kiosk vector; either may be empty when
// the account will not use that vector.
type CreateUserRequest struct {
	OperatorID *uuid.UUID
	TaxID      string
	Email      string
	Role       models.Role
	Password   string
	PIN        string
}

// OperatorService handles operator onboarding and account management.
type OperatorService interface {
	// Onboard registers a new operator.
	Onboard(ctx context.Context, operator *models.Operator) error
	Get(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)

	// CreateUser hashes the supplied secrets and persists the account.
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
}

type operatorService struct {
	operators repositories.OperatorRepository
	users     repositories.UserRepository
	logger    *zap.Logger
}

// NewOperatorService creates a new OperatorService.
func NewOperatorService(
	operators repositories.OperatorRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) OperatorService {
	return &operatorService{
		operators: operators,
		users:     users,
		logger:    logger.Named("operator-service"),
	}
}

var _ OperatorService = (*operatorService)(nil)

func (s *operatorService) Onboard(ctx context.Context, operator *models.Operator) error {
	if err := s.operators.Create(ctx, operator); err != nil {
		return fmt.Errorf("create operator: %w", err)
	}

	s.logger.Info("Onboarded operator",
		zap.String("operator_id", operator.ID.String()),
		zap.String("name", operator.Name))
	return nil
}

func (s *operatorService) Get(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return s.operators.GetByID(ctx, id)
}

func (s *operatorService) List(ctx context.Context) ([]*models.Operator, error) {
	return s.operators.List(ctx)
}

func (s *operatorService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	user := &models.User{
		OperatorID: req.OperatorID,
		TaxID:      req.TaxID,
		Email:      req.Email,
		Role:       req.Role,
		IsActive:   true,
	}

	if req.Password != "" {
		hash, err := crypto.HashSecret(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if req.PIN != "" {
		hash, err := crypto.HashSecret(req.PIN)
		if err != nil {
			return nil, fmt.Errorf("hash pin: %w", err)
		}
		user.PINHash = hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("Created user",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return user, nil
}

func (s *operatorService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.logger.Info("Deactivated user", zap.String("user_id", id.String()))
	return nil
}
