package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/lorekeeper/lorekeeper/internal/profile"
	"github.com/lorekeeper/lorekeeper/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database specified by the DSN in the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, fmt.Errorf("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db with dsn %s: %w", profile.DSN, err)
	}

	driver := DB{db: db, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the n-th positional parameter, e.g. $1.
func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

// placeholders returns a comma-joined list of the first n positional parameters.
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS system_setting (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS adventure (
		id SERIAL PRIMARY KEY,
		uid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		player_count INTEGER NOT NULL DEFAULT 1,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_turn (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		adventure_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_turn_adventure_id ON conversation_turn (adventure_id)`,
	`CREATE TABLE IF NOT EXISTS memory_record (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		adventure_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		tags JSONB NOT NULL DEFAULT '[]',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_record_adventure_id ON memory_record (adventure_id)`,
	`CREATE TABLE IF NOT EXISTS game_character (
		id TEXT PRIMARY KEY,
		adventure_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		race TEXT NOT NULL,
		class TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1,
		stats JSONB NOT NULL DEFAULT '{}',
		traits JSONB NOT NULL DEFAULT '[]',
		hp_current INTEGER NOT NULL DEFAULT 10,
		hp_max INTEGER NOT NULL DEFAULT 10,
		armor_class INTEGER NOT NULL DEFAULT 10,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_character_adventure_id ON game_character (adventure_id)`,
}

func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
