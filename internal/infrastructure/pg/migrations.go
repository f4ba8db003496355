package pg

import (
	"context"
	"fmt"
)

const createCalculationsTable = `
CREATE TABLE IF NOT EXISTS calculations (
	id             TEXT PRIMARY KEY,
	cache_key      CHAR(64) NOT NULL,
	state          CHAR(2) NOT NULL,
	county         TEXT NOT NULL,
	household_size INTEGER NOT NULL,
	fpl            DOUBLE PRECISION NOT NULL,
	slcsp          DOUBLE PRECISION NOT NULL,
	source         VARCHAR(16) NOT NULL,
	completed_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS calculations_completed_at_idx ON calculations (completed_at DESC);
`

// Migrate создаёт таблицу calculations, если её ещё нет.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, createCalculationsTable); err != nil {
		return fmt.Errorf("pg migrate: %w", err)
	}
	return nil
}
