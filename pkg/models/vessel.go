package models

import (
	"time"

	"github.com/google/uuid"
)

// Attribute names understood by rule contracts. These are the wire
// vocabulary used in stored contracts and are kept verbatim.
const (
	AttrLength   = "eslora"
	AttrTonnage  = "tonelaje"
	AttrCapacity = "capacidad"
)

// Vessel is a physical ship operated by an operator. Its physical
// attributes are the sole inputs to rule evaluation; any change to them
// is the trigger for matrix resynchronization. Vessels are never hard
// deleted so that inspection history stays intact.
type Vessel struct {
	ID           uuid.UUID `json:"id"`
	OperatorID   uuid.UUID `json:"operator_id"`
	Name         string    `json:"name"`
	Registration string    `json:"registration"`

	// Physical attributes.
	LengthM      float64 `json:"length_m"`
	GrossTonnage float64 `json:"gross_tonnage"`
	Capacity     int     `json:"capacity"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attributes returns the vessel's physical attributes keyed by the
// contract attribute vocabulary. A zero-valued attribute is still
// present: absence only arises for attribute names the vessel does not
// have at all.
func (v *Vessel) Attributes() map[string]any {
	return map[string]any{
		AttrLength:   v.LengthM,
		AttrTonnage:  v.GrossTonnage,
		AttrCapacity: v.Capacity,
	}
}
