package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is one row of the vessel/resource matrix: the durable
// result of reconciling a resource definition's rule contract against a
// vessel. Unique per (vessel, resource).
//
// ManualOverride is a cooperative flag set only by direct human edits.
// While it is true the synchronizer leaves the row untouched; it is
// never set or cleared automatically.
type Assignment struct {
	ID             uuid.UUID `json:"id"`
	VesselID       uuid.UUID `json:"vessel_id"`
	ResourceID     uuid.UUID `json:"resource_id"`
	Quantity       int       `json:"quantity"`
	Visible        bool      `json:"visible"`
	ManualOverride bool      `json:"manual_override"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ComputedAssignment is the rule engine's output for one resource,
// ready to be reconciled into the matrix.
type ComputedAssignment struct {
	ResourceID uuid.UUID
	Quantity   int
	Visible    bool
}
