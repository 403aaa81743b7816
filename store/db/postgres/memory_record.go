package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorekeeper/lorekeeper/store"
)

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(raw), nil
}

func unmarshalTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

func (d *DB) CreateMemoryRecord(ctx context.Context, create *store.MemoryRecord) (*store.MemoryRecord, error) {
	tags, err := marshalTags(create.Tags)
	if err != nil {
		return nil, err
	}

	fields := []string{"id", "adventure_id", "text", "tags", "created_ts"}
	args := []any{create.ID, create.AdventureID, create.Text, tags, create.CreatedTs}

	stmt := `INSERT INTO memory_record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create memory record: %w", err)
	}
	return create, nil
}

func (d *DB) ListMemoryRecords(ctx context.Context, find *store.FindMemoryRecord) ([]*store.MemoryRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.AdventureID != nil {
		where, args = append(where, "adventure_id = "+placeholder(len(args)+1)), append(args, *find.AdventureID)
	}

	// Store order: oldest-created first.
	query := `
		SELECT id, adventure_id, text, tags, created_ts
		FROM memory_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY seq ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory records: %w", err)
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
			return nil, fmt.Errorf("failed to scan memory record: %w", err)
		}
		if record.Tags, err = unmarshalTags(rawTags); err != nil {
			return nil, err
		}
		list = append(list, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory records: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateMemoryRecord(ctx context.Context, update *store.UpdateMemoryRecord) (*store.MemoryRecord, error) {
	set, args := []string{}, []any{}

	if update.Text != nil {
		set, args = append(set, "text = "+placeholder(len(args)+1)), append(args, *update.Text)
	}
	if update.Tags != nil {
		tags, err := marshalTags(*update.Tags)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, tags)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID, update.AdventureID)

	stmt := `
		UPDATE memory_record
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)-1) + ` AND adventure_id = ` + placeholder(len(args)) + `
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
		return nil, fmt.Errorf("failed to update memory record: %w", err)
	}
	var err error
	if record.Tags, err = unmarshalTags(rawTags); err != nil {
		return nil, err
	}
	return record, nil
}

func (d *DB) DeleteMemoryRecord(ctx context.Context, delete *store.DeleteMemoryRecord) error {
	stmt := "DELETE FROM memory_record WHERE id = $1 AND adventure_id = $2"
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID, delete.AdventureID); err != nil {
		return fmt.Errorf("failed to delete memory record: %w", err)
	}
	return nil
}
