package models

import (
	"time"

	"github.com/google/uuid"
)

// Role determines which authentication vector and operations a user may use.
type Role string

const (
	// RoleGlobalAdmin administers every operator on the instance.
	RoleGlobalAdmin Role = "global_admin"
	// RoleFleetAdmin administers a single operator.
	RoleFleetAdmin Role = "fleet_admin"
	// RoleShore is operations staff using the web vector.
	RoleShore Role = "shore"
	// RoleCrew is on-board staff restricted to the kiosk vector.
	RoleCrew Role = "crew"
)

// User is an account scoped to an operator. A nil OperatorID marks an
// instance-wide account (global administrators). The tax ID is the
// login identity on the kiosk vector and is unique per operator, so the
// same person can hold accounts with several operators.
type User struct {
	ID         uuid.UUID  `json:"id"`
	OperatorID *uuid.UUID `json:"operator_id,omitempty"`
	TaxID      string     `json:"tax_id"`
	Email      string     `json:"email,omitempty"`
	Role       Role       `json:"role"`

	// bcrypt hashes. The password backs the web vector, the PIN the
	// kiosk vector.
	PasswordHash string `json:"-"`
	PINHash      string `json:"-"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CanUseWeb reports whether the web authentication vector accepts this
// role. Crew accounts authenticate exclusively through enrolled kiosk
// devices.
func (u *User) CanUseWeb() bool {
	return u.Role != RoleCrew
}

// CanProvisionDevices reports whether this role may enroll kiosk hardware.
func (u *User) CanProvisionDevices() bool {
	return u.Role == RoleGlobalAdmin || u.Role == RoleFleetAdmin
}

// CanEditCatalog reports whether this role may modify resource definitions.
func (u *User) CanEditCatalog() bool {
	return u.Role == RoleGlobalAdmin || u.Role == RoleFleetAdmin
}
