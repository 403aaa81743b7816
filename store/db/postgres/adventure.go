package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorekeeper/lorekeeper/store"
)

func (d *DB) CreateAdventure(ctx context.Context, create *store.Adventure) (*store.Adventure, error) {
	fields := []string{"uid", "name", "description", "player_count", "created_ts", "updated_ts"}
	args := []any{create.UID, create.Name, create.Description, create.PlayerCount, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO adventure (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create adventure: %w", err)
	}
	return create, nil
}

func (d *DB) ListAdventures(ctx context.Context, find *store.FindAdventure) ([]*store.Adventure, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, name, description, player_count, created_ts, updated_ts
		FROM adventure
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list adventures: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Adventure, 0)
	for rows.Next() {
		adventure := &store.Adventure{}
		if err := rows.Scan(
			&adventure.ID,
			&adventure.UID,
			&adventure.Name,
			&adventure.Description,
			&adventure.PlayerCount,
			&adventure.CreatedTs,
			&adventure.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan adventure: %w", err)
		}
		list = append(list, adventure)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adventures: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateAdventure(ctx context.Context, update *store.UpdateAdventure) (*store.Adventure, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if update.PlayerCount != nil {
		set, args = append(set, "player_count = "+placeholder(len(args)+1)), append(args, *update.PlayerCount)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `
		UPDATE adventure
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, name, description, player_count, created_ts, updated_ts`

	adventure := &store.Adventure{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&adventure.ID,
		&adventure.UID,
		&adventure.Name,
		&adventure.Description,
		&adventure.PlayerCount,
		&adventure.CreatedTs,
		&adventure.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update adventure: %w", err)
	}
	return adventure, nil
}

func (d *DB) DeleteAdventure(ctx context.Context, delete *store.DeleteAdventure) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM conversation_turn WHERE adventure_id = $1",
		"DELETE FROM memory_record WHERE adventure_id = $1",
		"DELETE FROM game_character WHERE adventure_id = $1",
		"DELETE FROM adventure WHERE id = $1",
	} {
		if _, err := tx.ExecContext(ctx, stmt, delete.ID); err != nil {
			return fmt.Errorf("failed to delete adventure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
