package models

import (
	"time"

	"github.com/google/uuid"
)

// PeriodStatus is the lifecycle state of an inspection period.
// Transitions: open -> closed, open -> overdue. Both closed and overdue
// are terminal.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "open"
	PeriodClosed  PeriodStatus = "closed"
	PeriodOverdue PeriodStatus = "overdue"
)

// InspectionPeriod is a bounded time window for one periodicity's
// review of a vessel. Records may only be created while the period is
// open.
type InspectionPeriod struct {
	ID            uuid.UUID    `json:"id"`
	VesselID      uuid.UUID    `json:"vessel_id"`
	PeriodicityID uuid.UUID    `json:"periodicity_id"`
	StartDate     time.Time    `json:"start_date"`
	EndDate       time.Time    `json:"end_date"`
	Status        PeriodStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

// IsOpen reports whether records may still be created against the period.
func (p *InspectionPeriod) IsOpen() bool {
	return p.Status == PeriodOpen
}

// Checklist entry states as recorded on the wire. Any state other than
// ChecklistOK counts as failing.
const (
	ChecklistOK   = "ok"
	ChecklistFail = "falla"
)

// ChecklistEntry is the recorded outcome of a single named requirement.
type ChecklistEntry struct {
	State  string `json:"estado"`
	Remark string `json:"observacion,omitempty"`
}

// ChecklistPayload maps requirement names to their recorded outcome.
type ChecklistPayload map[string]ChecklistEntry

// InspectionRecord is one resource's review outcome within a period.
// Unique per (period, resource).
type InspectionRecord struct {
	ID          uuid.UUID        `json:"id"`
	PeriodID    uuid.UUID        `json:"period_id"`
	ResourceID  uuid.UUID        `json:"resource_id"`
	Operational bool             `json:"operational"`
	Remark      string           `json:"remark,omitempty"`
	RecordedBy  uuid.UUID        `json:"recorded_by"`
	Checklist   ChecklistPayload `json:"checklist"`
	CreatedAt   time.Time        `json:"created_at"`
}
