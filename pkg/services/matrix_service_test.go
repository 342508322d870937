package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

func lifeRaftDefinition(operatorID *uuid.UUID) *models.ResourceDefinition {
	return &models.ResourceDefinition{
		ID:         uuid.New(),
		OperatorID: operatorID,
		Name:       "Life raft",
		Contract: &models.RuleContract{
			Attribute: models.AttrLength,
			Conditions: []models.RuleCondition{
				{Operator: models.OpLessEqual, Value: 10, ResultQuantity: 0, ResultVisible: false},
				{Operator: models.OpLessEqual, Value: 50, ResultQuantity: 2, ResultVisible: true},
				{Operator: models.OpGreater, Value: 50, ResultQuantity: 4, ResultVisible: true},
			},
			FallbackQuantity: 1,
			FallbackVisible:  true,
		},
	}
}

func testVessel(operatorID uuid.UUID, lengthM float64) *models.Vessel {
	return &models.Vessel{
		ID:         uuid.New(),
		OperatorID: operatorID,
		Name:       "Mar Cantábrico",
		LengthM:    lengthM,
		IsActive:   true,
	}
}

func TestSynchronize_CreatesComputedRows(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	rows, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.True(t, rows[0].Visible)
	assert.False(t, rows[0].ManualOverride)
}

func TestSynchronize_Idempotent(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 75)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	first, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	firstID := first[0].ID

	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	second, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, firstID, second[0].ID)
	assert.Equal(t, 4, second[0].Quantity)
}

func TestSynchronize_PreservesManualOverride(t *testing.T) {
	operatorID := uuid.New()
	def := lifeRaftDefinition(nil)
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{def}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	// An inspector bumps the row by hand, then the vessel is remeasured.
	require.NoError(t, svc.SetManualOverride(context.Background(), vessel.ID, def.ID, 6, true))
	vessel.LengthM = 75
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	rows, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0].Quantity)
	assert.True(t, rows[0].ManualOverride)
}

func TestClearManualOverride_Resynchronizes(t *testing.T) {
	operatorID := uuid.New()
	def := lifeRaftDefinition(nil)
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{def}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 75)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))
	require.NoError(t, svc.SetManualOverride(context.Background(), vessel.ID, def.ID, 1, false))

	require.NoError(t, svc.ClearManualOverride(context.Background(), vessel, def.ID))

	rows, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Quantity)
	assert.True(t, rows[0].Visible)
	assert.False(t, rows[0].ManualOverride)
}

func TestSynchronize_ApplicableSetIsSharedPlusOwned(t *testing.T) {
	operatorID := uuid.New()
	otherOperator := uuid.New()
	shared := lifeRaftDefinition(nil)
	owned := lifeRaftDefinition(&operatorID)
	foreign := lifeRaftDefinition(&otherOperator)
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{shared, owned, foreign}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	rows, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, foreign.ID, row.ResourceID)
	}
}

func TestSynchronize_RetriesSerializationFailure(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	assignments.reconcileErrs = []error{
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40001"},
	}
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))
	assert.Equal(t, 3, assignments.reconcileCalls)
}

func TestSynchronize_NonRetryableFailsFast(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	boom := errors.New("connection refused")
	assignments.reconcileErrs = []error{boom}
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	err := svc.Synchronize(context.Background(), testVessel(operatorID, 30))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, assignments.reconcileCalls)
}

func TestOnVesselActivated_IgnoresInactive(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	vessel.IsActive = false
	require.NoError(t, svc.OnVesselActivated(context.Background(), vessel))
	assert.Equal(t, 0, assignments.reconcileCalls)
}

func TestResynchronizeOperator_CoversActiveFleet(t *testing.T) {
	operatorID := uuid.New()
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{lifeRaftDefinition(nil)}}
	assignments := newMockAssignmentRepo()
	vessels := newMockVesselRepo()
	svc := NewMatrixService(resources, assignments, vessels, zap.NewNop())

	active := testVessel(operatorID, 30)
	retired := testVessel(operatorID, 75)
	retired.IsActive = false
	require.NoError(t, vessels.Create(context.Background(), active))
	require.NoError(t, vessels.Create(context.Background(), retired))

	require.NoError(t, svc.ResynchronizeOperator(context.Background(), operatorID))

	activeRows, err := svc.GetAssignments(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Len(t, activeRows, 1)

	retiredRows, err := svc.GetAssignments(context.Background(), retired.ID)
	require.NoError(t, err)
	assert.Empty(t, retiredRows)
}

func TestPruneStale_RemovesOnlyInapplicableRows(t *testing.T) {
	operatorID := uuid.New()
	def := lifeRaftDefinition(nil)
	resources := &mockResourceRepo{defs: []*models.ResourceDefinition{def}}
	assignments := newMockAssignmentRepo()
	svc := NewMatrixService(resources, assignments, newMockVesselRepo(), zap.NewNop())

	vessel := testVessel(operatorID, 30)
	require.NoError(t, svc.Synchronize(context.Background(), vessel))

	// A row for a definition that has since been removed from the catalog.
	stale := uuid.New()
	assignments.rows[assignmentKey{vessel.ID, stale}] = &models.Assignment{
		ID: uuid.New(), VesselID: vessel.ID, ResourceID: stale, Quantity: 1,
	}

	pruned, err := svc.PruneStale(context.Background(), vessel)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	rows, err := svc.GetAssignments(context.Background(), vessel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, def.ID, rows[0].ResourceID)
}
