package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPeriodNotOpen       = errors.New("inspection period is not open")
	ErrPeriodAlreadyOpen   = errors.New("an open inspection period already exists")
	ErrVesselInactive      = errors.New("vessel is not active")
	ErrRoleDenied          = errors.New("role not permitted for this operation")
	ErrTenantMismatch      = errors.New("entity does not belong to the acting operator")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDeviceNotRecognized = errors.New("device token not recognized")
)
