package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a fleet operator, the tenancy unit. Every operator-owned
// row carries its ID, and tenant scopes filter on it.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
}
