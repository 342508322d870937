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

// RecordRepository provides data access for inspection records.
type RecordRepository interface {
	Create(ctx context.Context, record *models.InspectionRecord) error
	GetByPeriodAndResource(ctx context.Context, periodID, resourceID uuid.UUID) (*models.InspectionRecord, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.InspectionRecord, error)
}

type recordRepository struct{}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository() RecordRepository {
	return &recordRepository{}
}

var _ RecordRepository = (*recordRepository)(nil)

const recordColumns = `id, period_id, resource_id, operational, remark, recorded_by, checklist, created_at`

func scanRecord(row pgx.Row) (*models.InspectionRecord, error) {
	var record models.InspectionRecord
	var remark *string
	var checklist []byte
	err := row.Scan(&record.ID, &record.PeriodID, &record.ResourceID, &record.Operational,
		&remark, &record.RecordedBy, &checklist, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	if remark != nil {
		record.Remark = *remark
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &record.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist: %w", err)
		}
	}
	return &record, nil
}

func (r *recordRepository) Create(ctx context.Context, record *models.InspectionRecord) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO inspection_records (period_id, resource_id, operational, remark, recorded_by, checklist)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		record.PeriodID,
		record.ResourceID,
		record.Operational,
		nullString(record.Remark),
		record.RecordedBy,
		jsonbValue(record.Checklist),
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// One record per (period, resource).
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create inspection record: %w", err)
	}

	return nil
}

func (r *recordRepository) GetByPeriodAndResource(ctx context.Context, periodID, resourceID uuid.UUID) (*models.InspectionRecord, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + recordColumns + ` FROM inspection_records WHERE period_id = $1 AND resource_id = $2`

	record, err := scanRecord(scope.Conn.QueryRow(ctx, query, periodID, resourceID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inspection record: %w", err)
	}

	return record, nil
}

func (r *recordRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*models.InspectionRecord, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + recordColumns + ` FROM inspection_records WHERE period_id = $1 ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspection records: %w", err)
	}
	defer rows.Close()

	var records []*models.InspectionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
