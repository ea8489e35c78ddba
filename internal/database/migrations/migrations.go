// Package migrations holds the ordered schema changes for the journal
// database.
package migrations

import (
	"context"
	"database/sql"
)

// Migration is one schema change, applied at most once inside a transaction.
type Migration struct {
	Version string
	Apply   func(ctx context.Context, tx *sql.Tx) error
}

// All returns every migration in application order.
func All() []Migration {
	return []Migration{
		{Version: "001_events", Apply: createEvents},
		{Version: "002_events_event_index", Apply: indexEventsByName},
	}
}

func createEvents(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			event   TEXT    NOT NULL,
			payload TEXT    NOT NULL,
			ts      INTEGER NOT NULL
		)
	`)
	return err
}

func indexEventsByName(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_events_event_id ON events(event, id)`)
	return err
}
