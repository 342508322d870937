package models

import (
	"time"

	"github.com/google/uuid"
)

// Periodicity is a catalog entry describing how often a class of
// resources must be inspected (e.g. monthly, annual). Inspection
// periods are opened per (vessel, periodicity).
type Periodicity struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	IntervalMonths int       `json:"interval_months"`
	CreatedAt      time.Time `json:"created_at"`
}
