package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceDefinition is a catalog entry for a required safety item or
// document ("fire extinguisher", "navigation certificate"). A nil
// OperatorID makes the definition shared across all operators.
//
// Editing requirements or the rule contract does not retroactively
// recompute existing assignments; they are picked up on the next
// synchronization run for each vessel.
type ResourceDefinition struct {
	ID            uuid.UUID  `json:"id"`
	OperatorID    *uuid.UUID `json:"operator_id,omitempty"`
	Name          string     `json:"name"`
	Purpose       string     `json:"purpose"`
	PeriodicityID uuid.UUID  `json:"periodicity_id"`

	// Requirements are the named checks inspected per record, in
	// declaration order. May be empty, in which case the record's
	// operational flag is supplied directly by the inspector.
	Requirements []string `json:"requirements"`

	// Contract is nil when the resource applies unconditionally with
	// quantity zero (visible).
	Contract *RuleContract `json:"contract,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shared reports whether the definition applies to every operator.
func (r *ResourceDefinition) Shared() bool {
	return r.OperatorID == nil
}

// AppliesTo reports whether the definition is applicable to the given
// vessel under tenant scoping: shared, or owned by the vessel's operator.
func (r *ResourceDefinition) AppliesTo(v *Vessel) bool {
	return r.OperatorID == nil || *r.OperatorID == v.OperatorID
}
