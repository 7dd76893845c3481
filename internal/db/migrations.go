package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index transfers by party for the dashboard listings.
	`CREATE INDEX IF NOT EXISTS idx_transfers_seller ON transfers(seller_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_buyer ON transfers(buyer_id)`,
	// Migration 2: index messages by transfer for the polling cursor query.
	`CREATE INDEX IF NOT EXISTS idx_messages_transfer ON messages(transfer_id, id)`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
