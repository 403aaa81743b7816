package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorekeeper/lorekeeper/store"
)

func (d *DB) CreateAdventure(ctx context.Context, create *store.Adventure) (*store.Adventure, error) {
	stmt := `
		INSERT INTO adventure (uid, name, description, player_count, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.Name,
		create.Description,
		create.PlayerCount,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create adventure")
	}
	return create, nil
}

func (d *DB) ListAdventures(ctx context.Context, find *store.FindAdventure) ([]*store.Adventure, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, name, description, player_count, created_ts, updated_ts
		FROM adventure
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list adventures")
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
			return nil, errors.Wrap(err, "failed to scan adventure")
		}
		list = append(list, adventure)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate adventures")
	}
	return list, nil
}

func (d *DB) UpdateAdventure(ctx context.Context, update *store.UpdateAdventure) (*store.Adventure, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.PlayerCount != nil {
		set, args = append(set, "player_count = ?"), append(args, *update.PlayerCount)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `
		UPDATE adventure
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
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
		return nil, errors.Wrap(err, "failed to update adventure")
	}
	return adventure, nil
}

// DeleteAdventure removes the adventure and all dependent turns, memories,
// and characters in one transaction.
func (d *DB) DeleteAdventure(ctx context.Context, delete *store.DeleteAdventure) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM conversation_turn WHERE adventure_id = ?",
		"DELETE FROM memory_record WHERE adventure_id = ?",
		"DELETE FROM game_character WHERE adventure_id = ?",
		"DELETE FROM adventure WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, delete.ID); err != nil {
			return errors.Wrap(err, "failed to delete adventure")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
