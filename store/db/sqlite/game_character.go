package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorekeeper/lorekeeper/store"
)

func marshalStats(stats store.CharacterStats) (string, error) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal stats")
	}
	return string(raw), nil
}

func scanCharacterRow(scan func(dest ...any) error) (*store.GameCharacter, error) {
	character := &store.GameCharacter{}
	var rawStats, rawTraits string
	if err := scan(
		&character.ID,
		&character.AdventureID,
		&character.Name,
		&character.Race,
		&character.Class,
		&character.Level,
		&rawStats,
		&rawTraits,
		&character.HitPointsCurrent,
		&character.HitPointsMax,
		&character.ArmorClass,
		&character.CreatedTs,
		&character.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan game character")
	}
	if err := json.Unmarshal([]byte(rawStats), &character.Stats); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal stats")
	}
	traits, err := unmarshalTags(rawTraits)
	if err != nil {
		return nil, err
	}
	character.Traits = traits
	return character, nil
}

const characterColumns = "id, adventure_id, name, race, class, level, stats, traits, hp_current, hp_max, armor_class, created_ts, updated_ts"

func (d *DB) CreateGameCharacter(ctx context.Context, create *store.GameCharacter) (*store.GameCharacter, error) {
	stats, err := marshalStats(create.Stats)
	if err != nil {
		return nil, err
	}
	traits, err := marshalTags(create.Traits)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO game_character (` + characterColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.AdventureID,
		create.Name,
		create.Race,
		create.Class,
		create.Level,
		stats,
		traits,
		create.HitPointsCurrent,
		create.HitPointsMax,
		create.ArmorClass,
		create.CreatedTs,
		create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create game character")
	}
	return create, nil
}

func (d *DB) ListGameCharacters(ctx context.Context, find *store.FindGameCharacter) ([]*store.GameCharacter, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.AdventureID != nil {
		where, args = append(where, "adventure_id = ?"), append(args, *find.AdventureID)
	}

	query := `
		SELECT ` + characterColumns + `
		FROM game_character
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list game characters")
	}
	defer rows.Close()

	list := make([]*store.GameCharacter, 0)
	for rows.Next() {
		character, err := scanCharacterRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, character)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate game characters")
	}
	return list, nil
}

func (d *DB) UpdateGameCharacter(ctx context.Context, update *store.UpdateGameCharacter) (*store.GameCharacter, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Race != nil {
		set, args = append(set, "race = ?"), append(args, *update.Race)
	}
	if update.Class != nil {
		set, args = append(set, "class = ?"), append(args, *update.Class)
	}
	if update.Level != nil {
		set, args = append(set, "level = ?"), append(args, *update.Level)
	}
	if update.Stats != nil {
		stats, err := marshalStats(*update.Stats)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "stats = ?"), append(args, stats)
	}
	if update.Traits != nil {
		traits, err := marshalTags(*update.Traits)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "traits = ?"), append(args, traits)
	}
	if update.HitPointsCurrent != nil {
		set, args = append(set, "hp_current = ?"), append(args, *update.HitPointsCurrent)
	}
	if update.HitPointsMax != nil {
		set, args = append(set, "hp_max = ?"), append(args, *update.HitPointsMax)
	}
	if update.ArmorClass != nil {
		set, args = append(set, "armor_class = ?"), append(args, *update.ArmorClass)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID, update.AdventureID)

	stmt := `
		UPDATE game_character
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ? AND adventure_id = ?
		RETURNING ` + characterColumns

	return scanCharacterRow(d.db.QueryRowContext(ctx, stmt, args...).Scan)
}

func (d *DB) DeleteGameCharacter(ctx context.Context, delete *store.DeleteGameCharacter) error {
	stmt := "DELETE FROM game_character WHERE id = ? AND adventure_id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID, delete.AdventureID); err != nil {
		return errors.Wrap(err, "failed to delete game character")
	}
	return nil
}
