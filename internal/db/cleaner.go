package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartSessionPruner removes session tokens older than retention every interval.
// A pruned token fails validation as revoked, the same as after a logout.
func StartSessionPruner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM user_tokens
                     WHERE created_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to prune session tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("pruned session tokens", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
