package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The completions table carries the two invariants the service relies on:
// cascade delete from habits and at most one completion per habit per date.
const schema = `
CREATE TABLE IF NOT EXISTS habits (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description VARCHAR(1000),
	goal_days INTEGER,
	created_at DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS habit_completions (
	id BIGSERIAL PRIMARY KEY,
	habit_id VARCHAR(36) NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	completed_date DATE NOT NULL,
	CONSTRAINT uq_habit_date UNIQUE (habit_id, completed_date)
);
`

// Migrate creates the habit tables if they do not exist yet. Called once at
// startup before the server accepts traffic.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
