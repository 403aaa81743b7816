package recall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeeper/lorekeeper/store"
)

func memory(id, text string, tags ...string) *store.MemoryRecord {
	return &store.MemoryRecord{ID: id, Text: text, Tags: tags}
}

func TestNewMemoryRecords(t *testing.T) {
	now := time.Unix(1700000000, 0)

	records := NewMemoryRecords(7, []string{"A hidden dagger was found", "The gate is sealed"},
		[][]string{{"dagger", "clue"}}, now)

	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, int32(7), records[0].AdventureID)
	assert.Equal(t, "A hidden dagger was found", records[0].Text)
	assert.Equal(t, []string{"dagger", "clue"}, records[0].Tags)
	assert.Equal(t, int64(1700000000), records[0].CreatedTs)
	// Second candidate had no tag set at its index.
	assert.NotNil(t, records[1].Tags)
	assert.Empty(t, records[1].Tags)
}

func TestBuildRecallSet(t *testing.T) {
	t.Run("keyword then explicit id, deduped", func(t *testing.T) {
		memories := []*store.MemoryRecord{
			memory("m1", "The king is dead", "king", "death"),
			memory("m2", "The bridge collapsed", "bridge", "travel"),
			memory("m3", "The queen fled north", "queen", "escape"),
		}

		set := BuildRecallSet(memories, []string{"king"}, []string{"m1", "m3"}, 5)

		require.Len(t, set, 2)
		assert.Equal(t, "m1", set[0].ID)
		assert.Equal(t, "m3", set[1].ID)
	})

	t.Run("keyword match is case-insensitive substring", func(t *testing.T) {
		memories := []*store.MemoryRecord{
			memory("m1", "t1", "Kingdom"),
			memory("m2", "t2", "peasants"),
		}

		set := BuildRecallSet(memories, []string{"KING"}, nil, 5)

		require.Len(t, set, 1)
		assert.Equal(t, "m1", set[0].ID)
	})

	t.Run("keyword matches keep store order", func(t *testing.T) {
		memories := []*store.MemoryRecord{
			memory("m1", "t1", "forest"),
			memory("m2", "t2", "cave"),
			memory("m3", "t3", "forest", "cave"),
		}

		set := BuildRecallSet(memories, []string{"cave", "forest"}, nil, 5)

		require.Len(t, set, 3)
		assert.Equal(t, "m1", set[0].ID)
		assert.Equal(t, "m2", set[1].ID)
		assert.Equal(t, "m3", set[2].ID)
	})

	t.Run("cap drops explicit recalls first", func(t *testing.T) {
		memories := []*store.MemoryRecord{
			memory("m1", "t1", "war"),
			memory("m2", "t2", "war"),
			memory("m3", "t3", "war"),
			memory("m4", "t4", "peace"),
		}

		set := BuildRecallSet(memories, []string{"war"}, []string{"m4"}, 3)

		require.Len(t, set, 3)
		assert.Equal(t, "m1", set[0].ID)
		assert.Equal(t, "m2", set[1].ID)
		assert.Equal(t, "m3", set[2].ID)
	})

	t.Run("unknown recall ids ignored", func(t *testing.T) {
		memories := []*store.MemoryRecord{memory("m1", "t1", "war")}

		set := BuildRecallSet(memories, nil, []string{"ghost", "m1"}, 5)

		require.Len(t, set, 1)
		assert.Equal(t, "m1", set[0].ID)
	})

	t.Run("empty keywords never match everything", func(t *testing.T) {
		memories := []*store.MemoryRecord{memory("m1", "t1", "war")}

		set := BuildRecallSet(memories, []string{"", "  "}, nil, 5)

		assert.Empty(t, set)
	})

	t.Run("scenario: keyword and explicit id select the same memory once", func(t *testing.T) {
		memories := []*store.MemoryRecord{
			memory("m1", "The king is dead", "king", "death"),
		}

		set := BuildRecallSet(memories, []string{"king"}, []string{"m1"}, 5)

		require.Len(t, set, 1)
		assert.Equal(t, "m1", set[0].ID)
		assert.Equal(t, "## IMPORTANT MEMORIES:\nThe king is dead", ContextBlock(set))
	})
}

func TestContextBlock(t *testing.T) {
	t.Run("empty set renders nothing", func(t *testing.T) {
		assert.Empty(t, ContextBlock(nil))
	})

	t.Run("texts joined by blank lines", func(t *testing.T) {
		block := ContextBlock([]*store.MemoryRecord{
			memory("m1", "The king is dead"),
			memory("m2", "The queen fled north"),
		})

		assert.Equal(t, "## IMPORTANT MEMORIES:\nThe king is dead\n\nThe queen fled north", block)
	})
}
