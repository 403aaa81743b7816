package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorekeeper/lorekeeper/store"
)

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tags")
	}
	return string(raw), nil
}

func unmarshalTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tags")
	}
	return tags, nil
}

func (d *DB) CreateMemoryRecord(ctx context.Context, create *store.MemoryRecord) (*store.MemoryRecord, error) {
	tags, err := marshalTags(create.Tags)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO memory_record (id, adventure_id, text, tags, created_ts)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.AdventureID,
		create.Text,
		tags,
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create memory record")
	}
	return create, nil
}

func (d *DB) ListMemoryRecords(ctx context.Context, find *store.FindMemoryRecord) ([]*store.MemoryRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.AdventureID != nil {
		where, args = append(where, "adventure_id = ?"), append(args, *find.AdventureID)
	}

	// Store order: oldest-created first.
	query := `
		SELECT id, adventure_id, text, tags, created_ts
		FROM memory_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY seq ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory records")
	}
	defer rows.Close()

	list := make([]*store.MemoryRecord, 0)
	for rows.Next() {
		record := &store.MemoryRecord{}
		var rawTags string
		if err := rows.Scan(
			&record.ID,
			&record.AdventureID,
			&record.Text,
			&rawTags,
			&record.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory record")
		}
		if record.Tags, err = unmarshalTags(rawTags); err != nil {
			return nil, err
		}
		list = append(list, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate memory records")
	}
	return list, nil
}

func (d *DB) UpdateMemoryRecord(ctx context.Context, update *store.UpdateMemoryRecord) (*store.MemoryRecord, error) {
	set, args := []string{}, []any{}

	if update.Text != nil {
		set, args = append(set, "text = ?"), append(args, *update.Text)
	}
	if update.Tags != nil {
		tags, err := marshalTags(*update.Tags)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "tags = ?"), append(args, tags)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID, update.AdventureID)

	stmt := `
		UPDATE memory_record
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ? AND adventure_id = ?
		RETURNING id, adventure_id, text, tags, created_ts`

	record := &store.MemoryRecord{}
	var rawTags string
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&record.ID,
		&record.AdventureID,
		&record.Text,
		&rawTags,
		&record.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update memory record")
	}
	var err error
	if record.Tags, err = unmarshalTags(rawTags); err != nil {
		return nil, err
	}
	return record, nil
}

func (d *DB) DeleteMemoryRecord(ctx context.Context, delete *store.DeleteMemoryRecord) error {
	stmt := "DELETE FROM memory_record WHERE id = ? AND adventure_id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID, delete.AdventureID); err != nil {
		return errors.Wrap(err, "failed to delete memory record")
	}
	return nil
}
