package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
	"github.com/harborwatch/fleetcheck-engine/pkg/retry"
	"github.com/harborwatch/fleetcheck-engine/pkg/rules"
)

// MatrixService reconciles the vessel/resource assignment matrix
// against the rule-evaluated expectations of the resource catalog.
type MatrixService interface {
	// OnVesselActivated is the trigger entry point, called by the
	// vessel lifecycle after any create or update that leaves the
	// vessel active. Inactive vessels are ignored.
	OnVesselActivated(ctx context.Context, vessel *models.Vessel) error

	// Synchronize recomputes and reconciles all applicable resources
	// for one vessel as a single atomic unit. Idempotent: re-running
	// without attribute changes leaves rows untouched, and manually
	// overridden rows are never written.
	Synchronize(ctx context.Context, vessel *models.Vessel) error

	// ResynchronizeOperator re-runs synchronization for every active
	// vessel of an operator. Used after catalog edits.
	ResynchronizeOperator(ctx context.Context, operatorID uuid.UUID) error

	GetAssignments(ctx context.Context, vesselID uuid.UUID) ([]*models.Assignment, error)

	// SetManualOverride records a human edit on a matrix row and
	// raises the override flag.
	SetManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID, quantity int, visible bool) error

	// ClearManualOverride lowers the flag and immediately
	// resynchronizes the vessel so the row returns to computed values.
	ClearManualOverride(ctx context.Context, vessel *models.Vessel, resourceID uuid.UUID) error

	// PruneStale removes matrix rows whose resource definition no
	// longer applies to the vessel. Explicit maintenance operation;
	// synchronization never prunes.
	PruneStale(ctx context.Context, vessel *models.Vessel) (int64, error)
}

type matrixService struct {
	resources   repositories.ResourceRepository
	assignments repositories.AssignmentRepository
	vessels     repositories.VesselRepository
	retryCfg    *retry.Config
	logger      *zap.Logger
}

// NewMatrixService creates a new MatrixService.
func NewMatrixService(
	resources repositories.ResourceRepository,
	assignments repositories.AssignmentRepository,
	vessels repositories.VesselRepository,
	logger *zap.Logger,
) MatrixService {
	return &matrixService{
		resources:   resources,
		assignments: assignments,
		vessels:     vessels,
		retryCfg:    retry.DefaultConfig(),
		logger:      logger.Named("matrix-service"),
	}
}

var _ MatrixService = (*matrixService)(nil)

func (s *matrixService) OnVesselActivated(ctx context.Context, vessel *models.Vessel) error {
	if !vessel.IsActive {
		return nil
	}
	return s.Synchronize(ctx, vessel)
}

func (s *matrixService) Synchronize(ctx context.Context, vessel *models.Vessel) error {
	applicable, err := s.resources.ListApplicable(ctx, vessel.OperatorID)
	if err != nil {
		return fmt.Errorf("list applicable resources: %w", err)
	}

	attrs := vessel.Attributes()
	computed := make([]models.ComputedAssignment, 0, len(applicable))
	for _, resource := range applicable {
		quantity, visible := rules.Evaluate(attrs, resource.Contract)
		computed = append(computed, models.ComputedAssignment{
			ResourceID: resource.ID,
			Quantity:   quantity,
			Visible:    visible,
		})
	}

	// The reconciliation transaction can lose a serialization race
	// against a concurrent run for the same vessel; retrying repeats
	// the whole read-evaluate-write sequence from a clean state.
	err = retry.DoIf(ctx, s.retryCfg, func() error {
		return s.assignments.ReconcileVessel(ctx, vessel.ID, computed)
	}, repositories.IsSerializationFailure)
	if err != nil {
		return fmt.Errorf("reconcile vessel %s: %w", vessel.ID, err)
	}

	s.logger.Debug("Synchronized vessel matrix",
		zap.String("vessel_id", vessel.ID.String()),
		zap.Int("resources", len(computed)))
	return nil
}

func (s *matrixService) ResynchronizeOperator(ctx context.Context, operatorID uuid.UUID) error {
	vessels, err := s.vessels.ListByOperator(ctx, operatorID, true)
	if err != nil {
		return fmt.Errorf("list vessels for operator %s: %w", operatorID, err)
	}

	for _, vessel := range vessels {
		if err := s.Synchronize(ctx, vessel); err != nil {
			return err
		}
	}

	s.logger.Info("Resynchronized operator fleet",
		zap.String("operator_id", operatorID.String()),
		zap.Int("vessels", len(vessels)))
	return nil
}

func (s *matrixService) GetAssignments(ctx context.Context, vesselID uuid.UUID) ([]*models.Assignment, error) {
	return s.assignments.ListByVessel(ctx, vesselID)
}

func (s *matrixService) SetManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID, quantity int, visible bool) error {
	if err := s.assignments.SetManualOverride(ctx, vesselID, resourceID, quantity, visible); err != nil {
		return fmt.Errorf("set manual override: %w", err)
	}

	s.logger.Info("Manual override set",
		zap.String("vessel_id", vesselID.String()),
		zap.String("resource_id", resourceID.String()),
		zap.Int("quantity", quantity))
	return nil
}

func (s *matrixService) ClearManualOverride(ctx context.Context, vessel *models.Vessel, resourceID uuid.UUID) error {
	if err := s.assignments.ClearManualOverride(ctx, vessel.ID, resourceID); err != nil {
		return fmt.Errorf("clear manual override: %w", err)
	}

	// The row is under automatic control again; bring it back to its
	// computed values right away.
	return s.Synchronize(ctx, vessel)
}

func (s *matrixService) PruneStale(ctx context.Context, vessel *models.Vessel) (int64, error) {
	applicable, err := s.resources.ListApplicable(ctx, vessel.OperatorID)
	if err != nil {
		return 0, fmt.Errorf("list applicable resources: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(applicable))
	for _, resource := range applicable {
		ids = append(ids, resource.ID)
	}

	pruned, err := s.assignments.PruneStale(ctx, vessel.ID, ids)
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		s.logger.Info("Pruned stale assignments",
			zap.String("vessel_id", vessel.ID.String()),
			zap.Int64("pruned", pruned))
	}
	return pruned, nil
}
