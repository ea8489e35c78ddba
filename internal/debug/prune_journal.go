package debug

import (
	"context"
	"database/sql"

	"github.com/bhandras/agbridge/internal/logger"
)

// PruneJournal deletes every audit journal row (dev-only helper).
func PruneJournal(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	logger.Infof("[DEBUG] Pruned journal rows: %d", n)
	return n, nil
}
