package database

import (
	"path/filepath"
	"testing"

	"github.com/bhandras/agbridge/internal/database/migrations"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(path)
	require.NoError(t, err)

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, len(migrations.All()), applied)

	_, err = db.Exec("INSERT INTO events (event, payload, ts) VALUES ('hello', '{}', 1)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, len(migrations.All()), applied)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM events").Scan(&rows))
	require.Equal(t, 1, rows)
}
