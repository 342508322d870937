package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantScope wraps a connection with operator context and ensures
// cleanup. The connection has app.current_operator_id set for RLS
// policy evaluation, so operator-owned rows of other tenants are
// invisible for the scope's lifetime.
type TenantScope struct {
	Conn *pgxpool.Conn
}

// Close resets operator context and releases the connection to the pool.
// This MUST be called to prevent tenant context from leaking to the next request.
func (s *TenantScope) Close() {
	if s.Conn == nil {
		return
	}
	// Reset the operator context before returning connection to pool
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_operator_id")
	s.Conn.Release()
}

// WithTenant acquires a connection and sets the operator context for RLS.
// The returned TenantScope MUST be closed with defer scope.Close().
func (db *DB) WithTenant(ctx context.Context, operatorID uuid.UUID) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_operator_id', $1, false)", operatorID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &TenantScope{Conn: conn}, nil
}

// WithoutTenant acquires a connection without operator context. Use
// this for instance-wide operations (operator onboarding, shared
// catalog seeding, the overdue sweep). The returned TenantScope MUST be
// closed with defer scope.Close().
func (db *DB) WithoutTenant(ctx context.Context) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &TenantScope{Conn: conn}, nil
}
