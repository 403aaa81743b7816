package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorekeeper/lorekeeper/store"
)

func (d *DB) CreateConversationTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	fields := []string{"id", "adventure_id", "role", "content", "created_ts"}
	args := []any{create.ID, create.AdventureID, create.Role, create.Content, create.CreatedTs}

	stmt := `INSERT INTO conversation_turn (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create conversation turn: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.AdventureID != nil {
		where, args = append(where, "adventure_id = "+placeholder(len(args)+1)), append(args, *find.AdventureID)
	}

	// Insertion order is chronological order for turns.
	query := `
		SELECT id, adventure_id, role, content, created_ts
		FROM conversation_turn
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY seq ASC`
	if find.Limit > 0 {
		// Keep the most recent N turns while preserving chronological order.
		query = `
			SELECT id, adventure_id, role, content, created_ts FROM (
				SELECT seq, id, adventure_id, role, content, created_ts
				FROM conversation_turn
				WHERE ` + strings.Join(where, " AND ") + `
				ORDER BY seq DESC
				LIMIT ` + placeholder(len(args)+1) + `
			) recent ORDER BY seq ASC`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation turns: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationTurn, 0)
	for rows.Next() {
		turn := &store.ConversationTurn{}
		if err := rows.Scan(
			&turn.ID,
			&turn.AdventureID,
			&turn.Role,
			&turn.Content,
			&turn.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		list = append(list, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation turns: %w", err)
	}
	return list, nil
}
