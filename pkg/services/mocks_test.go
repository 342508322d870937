package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborwatch/fleetcheck-engine/pkg/apperrors"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// In-memory repository fakes mirroring the SQL semantics the services
// rely on. They are deliberately simple: no tenant scoping, no
// concurrency safety beyond what single-goroutine tests need.

type mockResourceRepo struct {
	defs []*models.ResourceDefinition
}

func (m *mockResourceRepo) Create(ctx context.Context, resource *models.ResourceDefinition) error {
	resource.ID = uuid.New()
	m.defs = append(m.defs, resource)
	return nil
}

func (m *mockResourceRepo) Update(ctx context.Context, resource *models.ResourceDefinition) error {
	for i, d := range m.defs {
		if d.ID == resource.ID {
			m.defs[i] = resource
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockResourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ResourceDefinition, error) {
	for _, d := range m.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockResourceRepo) ListApplicable(ctx context.Context, operatorID uuid.UUID) ([]*models.ResourceDefinition, error) {
	var out []*models.ResourceDefinition
	for _, d := range m.defs {
		if d.OperatorID == nil || *d.OperatorID == operatorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockResourceRepo) UpsertShared(ctx context.Context, resource *models.ResourceDefinition) error {
	for i, d := range m.defs {
		if d.OperatorID == nil && d.Name == resource.Name {
			resource.ID = d.ID
			m.defs[i] = resource
			return nil
		}
	}
	resource.ID = uuid.New()
	m.defs = append(m.defs, resource)
	return nil
}

type assignmentKey struct {
	vesselID   uuid.UUID
	resourceID uuid.UUID
}

type mockAssignmentRepo struct {
	rows map[assignmentKey]*models.Assignment

	// reconcileErrs is consumed one per ReconcileVessel call before
	// the reconciliation applies, to simulate transient failures.
	reconcileErrs  []error
	reconcileCalls int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{rows: make(map[assignmentKey]*models.Assignment)}
}

func (m *mockAssignmentRepo) ReconcileVessel(ctx context.Context, vesselID uuid.UUID, computed []models.ComputedAssignment) error {
	m.reconcileCalls++
	if len(m.reconcileErrs) > 0 {
		err := m.reconcileErrs[0]
		m.reconcileErrs = m.reconcileErrs[1:]
		if err != nil {
			return err
		}
	}

	for _, c := range computed {
		key := assignmentKey{vesselID, c.ResourceID}
		if row, ok := m.rows[key]; ok {
			if row.ManualOverride {
				continue
			}
			row.Quantity = c.Quantity
			row.Visible = c.Visible
			row.UpdatedAt = time.Now()
			continue
		}
		m.rows[key] = &models.Assignment{
			ID:         uuid.New(),
			VesselID:   vesselID,
			ResourceID: c.ResourceID,
			Quantity:   c.Quantity,
			Visible:    c.Visible,
		}
	}
	return nil
}

func (m *mockAssignmentRepo) Get(ctx context.Context, vesselID, resourceID uuid.UUID) (*models.Assignment, error) {
	if row, ok := m.rows[assignmentKey{vesselID, resourceID}]; ok {
		return row, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAssignmentRepo) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.Assignment, error) {
	var out []*models.Assignment
	for key, row := range m.rows {
		if key.vesselID == vesselID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) SetManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID, quantity int, visible bool) error {
	row, ok := m.rows[assignmentKey{vesselID, resourceID}]
	if !ok {
		return apperrors.ErrNotFound
	}
	row.Quantity = quantity
	row.Visible = visible
	row.ManualOverride = true
	return nil
}

func (m *mockAssignmentRepo) ClearManualOverride(ctx context.Context, vesselID, resourceID uuid.UUID) error {
	row, ok := m.rows[assignmentKey{vesselID, resourceID}]
	if !ok {
		return apperrors.ErrNotFound
	}
	row.ManualOverride = false
	return nil
}

func (m *mockAssignmentRepo) PruneStale(ctx context.Context, vesselID uuid.UUID, applicable []uuid.UUID) (int64, error) {
	keep := make(map[uuid.UUID]bool, len(applicable))
	for _, id := range applicable {
		keep[id] = true
	}
	var pruned int64
	for key := range m.rows {
		if key.vesselID == vesselID && !keep[key.resourceID] {
			delete(m.rows, key)
			pruned++
		}
	}
	return pruned, nil
}

type mockVesselRepo struct {
	vessels map[uuid.UUID]*models.Vessel
}

func newMockVesselRepo() *mockVesselRepo {
	return &mockVesselRepo{vessels: make(map[uuid.UUID]*models.Vessel)}
}

func (m *mockVesselRepo) Create(ctx context.Context, vessel *models.Vessel) error {
	vessel.ID = uuid.New()
	m.vessels[vessel.ID] = vessel
	return nil
}

func (m *mockVesselRepo) Update(ctx context.Context, vessel *models.Vessel) error {
	if _, ok := m.vessels[vessel.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.vessels[vessel.ID] = vessel
	return nil
}

func (m *mockVesselRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vessel, error) {
	if v, ok := m.vessels[id]; ok {
		return v, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockVesselRepo) ListByOperator(ctx context.Context, operatorID uuid.UUID, activeOnly bool) ([]*models.Vessel, error) {
	var out []*models.Vessel
	for _, v := range m.vessels {
		if v.OperatorID != operatorID {
			continue
		}
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVesselRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	v, ok := m.vessels[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	v.IsActive = false
	return nil
}

type mockPeriodRepo struct {
	periods map[uuid.UUID]*models.InspectionPeriod
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[uuid.UUID]*models.InspectionPeriod)}
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.InspectionPeriod) error {
	for _, p := range m.periods {
		if p.VesselID == period.VesselID && p.PeriodicityID == period.PeriodicityID && p.IsOpen() {
			return apperrors.ErrPeriodAlreadyOpen
		}
	}
	period.ID = uuid.New()
	m.periods[period.ID] = period
	return nil
}

func (m *mockPeriodRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.InspectionPeriod, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockPeriodRepo) GetOpen(ctx context.Context, vesselID, periodicityID uuid.UUID) (*models.InspectionPeriod, error) {
	for _, p := range m.periods {
		if p.VesselID == vesselID && p.PeriodicityID == periodicityID && p.IsOpen() {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockPeriodRepo) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*models.InspectionPeriod, error) {
	var out []*models.InspectionPeriod
	for _, p := range m.periods {
		if p.VesselID == vesselID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPeriodRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PeriodStatus) error {
	p, ok := m.periods[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockPeriodRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range m.periods {
		if p.IsOpen() && p.EndDate.Before(now) {
			p.Status = models.PeriodOverdue
			n++
		}
	}
	return n, nil
}

type recordKey struct {
	periodID   uuid.UUID
	resourceID uuid.UUID
}

type mockRecordRepo struct {
	records map[recordKey]*models.InspectionRecord
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[recordKey]*models.InspectionRecord)}
}

func (m *mockRecordRepo) Create(ctx context.Context, record *models.InspectionRecord) error {
	key := recordKey{record.PeriodID, record.ResourceID}
	if _, ok := m.records[key]; ok {
		return fmt.Errorf("record for resource %s: %w", record.ResourceID, apperrors.ErrConflict)
	}
	record.ID = uuid.New()
	m.records[key] = record
	return nil
}

func (m *mockRecordRepo) GetByPeriodAndResource(ctx context.Context, periodID, resourceID uuid.UUID) (*models.InspectionRecord, error) {
	if r, ok := m.records[recordKey{periodID, resourceID}]; ok {
		return r, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockRecordRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.InspectionRecord, error) {
	var out []*models.InspectionRecord
	for key, r := range m.records {
		if key.periodID == periodID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockPeriodicityRepo struct {
	periodicities map[uuid.UUID]*models.Periodicity
}

func newMockPeriodicityRepo() *mockPeriodicityRepo {
	return &mockPeriodicityRepo{periodicities: make(map[uuid.UUID]*models.Periodicity)}
}

func (m *mockPeriodicityRepo) Create(ctx context.Context, periodicity *models.Periodicity) error {
	periodicity.ID = uuid.New()
	m.periodicities[periodicity.ID] = periodicity
	return nil
}

func (m *mockPeriodicityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Periodicity, error) {
	if p, ok := m.periodicities[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockPeriodicityRepo) List(ctx context.Context) ([]*models.Periodicity, error) {
	var out []*models.Periodicity
	for _, p := range m.periodicities {
		out = append(out, p)
	}
	return out, nil
}

type mockDeviceRepo struct {
	devices map[uuid.UUID]*models.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[uuid.UUID]*models.Device)}
}

func (m *mockDeviceRepo) Create(ctx context.Context, device *models.Device) error {
	device.ID = uuid.New()
	m.devices[device.ID] = device
	return nil
}

func (m *mockDeviceRepo) ListActiveByOperator(ctx context.Context, operatorID uuid.UUID) ([]*models.Device, error) {
	var out []*models.Device
	for _, d := range m.devices {
		if d.OperatorID == operatorID && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDeviceRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	d, ok := m.devices[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	d.IsActive = false
	return nil
}
