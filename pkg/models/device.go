package models

import (
	"time"

	"github.com/google/uuid"
)

// Device is an enrolled kiosk tablet. Possession of its enrollment
// token is the hardware factor of the kiosk authentication vector. Only
// a hash of the token is stored; the plaintext is shown once at
// provisioning time.
type Device struct {
	ID         uuid.UUID  `json:"id"`
	OperatorID uuid.UUID  `json:"operator_id"`
	VesselID   *uuid.UUID `json:"vessel_id,omitempty"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}
