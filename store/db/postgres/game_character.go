package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorekeeper/lorekeeper/store"
)

func marshalStats(stats store.CharacterStats) (string, error) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
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
		return nil, fmt.Errorf("failed to scan game character: %w", err)
	}
	if err := json.Unmarshal([]byte(rawStats), &character.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
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

	args := []any{
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
	}

	stmt := `INSERT INTO game_character (` + characterColumns + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create game character: %w", err)
	}
	return create, nil
}

func (d *DB) ListGameCharacters(ctx context.Context, find *store.FindGameCharacter) ([]*store.GameCharacter, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.AdventureID != nil {
		where, args = append(where, "adventure_id = "+placeholder(len(args)+1)), append(args, *find.AdventureID)
	}

	query := `
		SELECT ` + characterColumns + `
		FROM game_character
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game characters: %w", err)
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
		return nil, fmt.Errorf("failed to iterate game characters: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateGameCharacter(ctx context.Context, update *store.UpdateGameCharacter) (*store.GameCharacter, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Race != nil {
		set, args = append(set, "race = "+placeholder(len(args)+1)), append(args, *update.Race)
	}
	if update.Class != nil {
		set, args = append(set, "class = "+placeholder(len(args)+1)), append(args, *update.Class)
	}
	if update.Level != nil {
		set, args = append(set, "level = "+placeholder(len(args)+1)), append(args, *update.Level)
	}
	if update.Stats != nil {
		stats, err := marshalStats(*update.Stats)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "stats = "+placeholder(len(args)+1)), append(args, stats)
	}
	if update.Traits != nil {
		traits, err := marshalTags(*update.Traits)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "traits = "+placeholder(len(args)+1)), append(args, traits)
	}
	if update.HitPointsCurrent != nil {
		set, args = append(set, "hp_current = "+placeholder(len(args)+1)), append(args, *update.HitPointsCurrent)
	}
	if update.HitPointsMax != nil {
		set, args = append(set, "hp_max = "+placeholder(len(args)+1)), append(args, *update.HitPointsMax)
	}
	if update.ArmorClass != nil {
		set, args = append(set, "armor_class = "+placeholder(len(args)+1)), append(args, *update.ArmorClass)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID, update.AdventureID)

	stmt := `
		UPDATE game_character
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)-1) + ` AND adventure_id = ` + placeholder(len(args)) + `
		RETURNING ` + characterColumns

	return scanCharacterRow(d.db.QueryRowContext(ctx, stmt, args...).Scan)
}

func (d *DB) DeleteGameCharacter(ctx context.Context, delete *store.DeleteGameCharacter) error {
	stmt := "DELETE FROM game_character WHERE id = $1 AND adventure_id = $2"
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID, delete.AdventureID); err != nil {
		return fmt.Errorf("failed to delete game character: %w", err)
	}
	return nil
}
