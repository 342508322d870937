package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
)

// VesselService owns the vessel lifecycle. Persisting a vessel in
// active state triggers matrix synchronization synchronously, after the
// write commits.
type VesselService interface {
	Create(ctx context.Context, vessel *models.Vessel) error
	Update(ctx context.Context, vessel *models.Vessel) error
	Get(ctx context.Context, id uuid.UUID) (*models.Vessel, error)
	List(ctx context.Context, operatorID uuid.UUID, activeOnly bool) ([]*models.Vessel, error)

	// Deactivate is the only removal primitive; vessels are never hard
	// deleted so inspection history survives.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type vesselService struct {
	vessels repositories.VesselRepository
	matrix  MatrixService
	logger  *zap.Logger
}

// NewVesselService creates a new VesselService.
func NewVesselService(vessels repositories.VesselRepository, matrix MatrixService, logger *zap.Logger) VesselService {
	return &vesselService{
		vessels: vessels,
		matrix:  matrix,
		logger:  logger.Named("vessel-service"),
	}
}

var _ VesselService = (*vesselService)(nil)

func (s *vesselService) Create(ctx context.Context, vessel *models.Vessel) error {
	if err := s.vessels.Create(ctx, vessel); err != nil {
		return fmt.Errorf("create vessel: %w", err)
	}

	s.logger.Info("Created vessel",
		zap.String("vessel_id", vessel.ID.String()),
		zap.String("name", vessel.Name))

	return s.matrix.OnVesselActivated(ctx, vessel)
}

func (s *vesselService) Update(ctx context.Context, vessel *models.Vessel) error {
	if err := s.vessels.Update(ctx, vessel); err != nil {
		return fmt.Errorf("update vessel: %w", err)
	}

	// Attribute changes are the trigger event for resynchronization.
	return s.matrix.OnVesselActivated(ctx, vessel)
}

func (s *vesselService) Get(ctx context.Context, id uuid.UUID) (*models.Vessel, error) {
	return s.vessels.GetByID(ctx, id)
}

func (s *vesselService) List(ctx context.Context, operatorID uuid.UUID, activeOnly bool) ([]*models.Vessel, error) {
	return s.vessels.ListByOperator(ctx, operatorID, activeOnly)
}

func (s *vesselService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.vessels.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate vessel: %w", err)
	}

	s.logger.Info("Deactivated vessel", zap.String("vessel_id", id.String()))
	return nil
}
