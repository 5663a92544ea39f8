package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanAuditLog removes audit entries older than the retention period.
func (db *DB) CleanAuditLog(retentionPeriod time.Duration) error {
	cutoff := time.Now().Add(-retentionPeriod)

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		"DELETE FROM audit_log WHERE timestamp < ?",
		cutoff,
	); err != nil {
		db.rollback(tx)

		return fmt.Errorf("%w audit log: %w", ErrFailedToClean, err)
	}

	return tx.Commit()
}

func (db *DB) rollback(tx Transaction) {
	if err := tx.Rollback(); err != nil {
		db.log.Warn("failed to rollback transaction", zap.Error(err))
	}
}
