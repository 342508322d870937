package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
	"github.com/harborwatch/fleetcheck-engine/pkg/rules"
)

// SubmitRecordRequest carries one resource's inspection outcome as
// submitted from a kiosk or the web.
type SubmitRecordRequest struct {
	PeriodID   uuid.UUID
	ResourceID uuid.UUID
	RecordedBy uuid.UUID

	// GeneralRemark is the inspector's free-text observation.
	GeneralRemark string

	// Checklist maps requirement names to recorded states.
	Checklist models.ChecklistPayload

	// OperationalHint is the inspector's overall verdict. For a
	// resource without requirements it is the operational flag; with
	// requirements it can only lower the rolled-up result.
	OperationalHint bool
}

// InspectionService governs the inspection period lifecycle and record
// submission.
type InspectionService interface {
	// OpenPeriod opens a new period for (vessel, periodicity). The end
	// date is derived from the periodicity interval. At most one open
	// period may exist per pair.
	OpenPeriod(ctx context.Context, vesselID, periodicityID uuid.UUID, start time.Time) (*models.InspectionPeriod, error)

	// ClosePeriod transitions an open period to closed. Closed and
	// overdue are terminal.
	ClosePeriod(ctx context.Context, periodID uuid.UUID) error

	// MarkOverduePeriods transitions every open period whose end date
	// has elapsed to overdue. Invoked by an administrative boundary
	// check, not a scheduler inside the engine.
	MarkOverduePeriods(ctx context.Context, now time.Time) (int64, error)

	ListPeriods(ctx context.Context, vesselID uuid.UUID) ([]*models.InspectionPeriod, error)

	// SubmitRecord validates the period state, rolls the checklist up
	// into the operational flag, and persists the record. One record
	// per (period, resource).
	SubmitRecord(ctx context.Context, req *SubmitRecordRequest) (*models.InspectionRecord, error)

	// GetResourceStatus returns the recorded outcome for a resource
	// within a period.
	GetResourceStatus(ctx context.Context, periodID, resourceID uuid.UUID) (*models.InspectionRecord, error)
}

type inspectionService struct {
	periods       repositories.PeriodRepository
	records       repositories.RecordRepository
	resources     repositories.ResourceRepository
	vessels       repositories.VesselRepository
	periodicities repositories.PeriodicityRepository
	logger        *zap.Logger
}

// NewInspectionService creates a new InspectionService.
func NewInspectionService(
	periods repositories.PeriodRepository,
	records repositories.RecordRepository,
	resources repositories.ResourceRepository,
	vessels repositories.VesselRepository,
	periodicities repositories.PeriodicityRepository,
	logger *zap.Logger,
) InspectionService {
	return &inspectionService{
		periods:       periods,
		records:       records,
		resources:     resources,
		vessels:       vessels,
		periodicities: periodicities,
		logger:        logger.Named("inspection-service"),
	}
}

var _ InspectionService = (*inspectionService)(nil)

func (s *inspectionService) OpenPeriod(ctx context.Context, vesselID, periodicityID uuid.UUID, start time.Time) (*models.InspectionPeriod, error) {
	vessel, err := s.vessels.GetByID(ctx, vesselID)
	if err != nil {
		return nil, fmt.Errorf("get vessel: %w", err)
	}
	if !vessel.IsActive {
		return nil, apperrors.ErrVesselInactive
	}

	periodicity, err := s.periodicities.GetByID(ctx, periodicityID)
	if err != nil {
		return nil, fmt.Errorf("get periodicity: %w", err)
	}

	period := &models.InspectionPeriod{
		VesselID:      vesselID,
		PeriodicityID: periodicityID,
		StartDate:     start,
		EndDate:       start.AddDate(0, periodicity.IntervalMonths, 0),
		Status:        models.PeriodOpen,
	}

	if err := s.periods.Create(ctx, period); err != nil {
		return nil, err
	}

	s.logger.Info("Opened inspection period",
		zap.String("vessel_id", vesselID.String()),
		zap.String("periodicity", periodicity.Name),
		zap.Time("end_date", period.EndDate))
	return period, nil
}

func (s *inspectionService) ClosePeriod(ctx context.Context, periodID uuid.UUID) error {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("get period: %w", err)
	}
	if !period.IsOpen() {
		return apperrors.ErrPeriodNotOpen
	}

	return s.periods.UpdateStatus(ctx, periodID, models.PeriodClosed)
}

func (s *inspectionService) MarkOverduePeriods(ctx context.Context, now time.Time) (int64, error) {
	transitioned, err := s.periods.MarkOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	if transitioned > 0 {
		s.logger.Info("Marked periods overdue", zap.Int64("count", transitioned))
	}
	return transitioned, nil
}

func (s *inspectionService) ListPeriods(ctx context.Context, vesselID uuid.UUID) ([]*models.InspectionPeriod, error) {
	return s.periods.ListByVessel(ctx, vesselID)
}

func (s *inspectionService) SubmitRecord(ctx context.Context, req *SubmitRecordRequest) (*models.InspectionRecord, error) {
	period, err := s.periods.GetByID(ctx, req.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	if !period.IsOpen() {
		return nil, apperrors.ErrPeriodNotOpen
	}

	resource, err := s.resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}

	record := &models.InspectionRecord{
		PeriodID:    req.PeriodID,
		ResourceID:  req.ResourceID,
		Operational: rules.ComputeOperational(resource.Requirements, req.Checklist, req.OperationalHint),
		Remark:      req.GeneralRemark,
		RecordedBy:  req.RecordedBy,
		Checklist:   req.Checklist,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Recorded inspection",
		zap.String("period_id", req.PeriodID.String()),
		zap.String("resource_id", req.ResourceID.String()),
		zap.Bool("operational", record.Operational))
	return record, nil
}

func (s *inspectionService) GetResourceStatus(ctx context.Context, periodID, resourceID uuid.UUID) (*models.InspectionRecord, error) {
	return s.records.GetByPeriodAndResource(ctx, periodID, resourceID)
}
