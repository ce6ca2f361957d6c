package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS giveaways (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	chat_id INTEGER NOT NULL,
	channel_message_id INTEGER NOT NULL DEFAULT 0,
	end_time INTEGER NOT NULL,
	state TEXT NOT NULL DEFAULT 'active'
);

CREATE INDEX IF NOT EXISTS idx_giveaways_state ON giveaways (state);
CREATE INDEX IF NOT EXISTS idx_giveaways_channel_message ON giveaways (channel_message_id);

CREATE TABLE IF NOT EXISTS participants (
	giveaway_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	display_name TEXT NOT NULL,
	handle TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (giveaway_id, user_id),
	FOREIGN KEY (giveaway_id) REFERENCES giveaways (id) ON DELETE CASCADE
);
`

// Open initializes a SQLite connection and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent timer callbacks.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return sqlDB, nil
}
