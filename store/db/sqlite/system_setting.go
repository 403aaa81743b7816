package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func (d *DB) UpsertSystemSetting(ctx context.Context, name, value string) error {
	stmt := `
		INSERT INTO system_setting (name, value)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := d.db.ExecContext(ctx, stmt, name, value); err != nil {
		return errors.Wrap(err, "failed to upsert system setting")
	}
	return nil
}

// GetSystemSetting returns the setting value, or an empty string when unset.
func (d *DB) GetSystemSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM system_setting WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get system setting")
	}
	return value, nil
}
