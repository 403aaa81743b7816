package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeeper/lorekeeper/internal/profile"
	"github.com/lorekeeper/lorekeeper/internal/version"
	"github.com/lorekeeper/lorekeeper/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	driver, err := NewDB(&profile.Profile{
		DSN: filepath.Join(t.TempDir(), "lorekeeper_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func createTestAdventure(t *testing.T, driver store.Driver, uid string) *store.Adventure {
	t.Helper()
	adventure, err := driver.CreateAdventure(context.Background(), &store.Adventure{
		UID:         uid,
		Name:        "The Hollow Crown",
		Description: "A kingdom on the edge of civil war.",
		PlayerCount: 1,
		CreatedTs:   1700000000,
		UpdatedTs:   1700000000,
	})
	require.NoError(t, err)
	require.NotZero(t, adventure.ID)
	return adventure
}

func TestAdventureCRUD(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	adventure := createTestAdventure(t, driver, "adv-1")

	found, err := driver.ListAdventures(ctx, &store.FindAdventure{UID: &adventure.UID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Hollow Crown", found[0].Name)

	newName := "The Hollow Crown II"
	updatedTs := int64(1700000100)
	updated, err := driver.UpdateAdventure(ctx, &store.UpdateAdventure{
		ID:        adventure.ID,
		Name:      &newName,
		UpdatedTs: &updatedTs,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, updatedTs, updated.UpdatedTs)

	require.NoError(t, driver.DeleteAdventure(ctx, &store.DeleteAdventure{ID: adventure.ID}))
	found, err = driver.ListAdventures(ctx, &store.FindAdventure{UID: &adventure.UID})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestConversationTurnOrderAndWindow(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	adventure := createTestAdventure(t, driver, "adv-1")

	// Same created_ts for every turn: ordering must come from insertion order.
	for i := 0; i < 6; i++ {
		_, err := driver.CreateConversationTurn(ctx, &store.ConversationTurn{
			ID:          fmt.Sprintf("t%d", i),
			AdventureID: adventure.ID,
			Role:        store.RoleUser,
			Content:     fmt.Sprintf("message %d", i),
			CreatedTs:   1700000000,
		})
		require.NoError(t, err)
	}

	all, err := driver.ListConversationTurns(ctx, &store.FindConversationTurn{AdventureID: &adventure.ID})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "t0", all[0].ID)
	assert.Equal(t, "t5", all[5].ID)

	// Limit returns the newest turns, still oldest first.
	windowed, err := driver.ListConversationTurns(ctx, &store.FindConversationTurn{AdventureID: &adventure.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, windowed, 3)
	assert.Equal(t, "t3", windowed[0].ID)
	assert.Equal(t, "t5", windowed[2].ID)
}

func TestMemoryRecordCRUD(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	adventure := createTestAdventure(t, driver, "adv-1")

	created, err := driver.CreateMemoryRecord(ctx, &store.MemoryRecord{
		ID:          "m1",
		AdventureID: adventure.ID,
		Text:        "The king is dead",
		Tags:        []string{"king", "death"},
		CreatedTs:   1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"king", "death"}, created.Tags)

	newTags := []string{"king", "death", "succession"}
	updated, err := driver.UpdateMemoryRecord(ctx, &store.UpdateMemoryRecord{
		ID:          "m1",
		AdventureID: adventure.ID,
		Tags:        &newTags,
	})
	require.NoError(t, err)
	assert.Equal(t, newTags, updated.Tags)
	assert.Equal(t, "The king is dead", updated.Text)

	require.NoError(t, driver.DeleteMemoryRecord(ctx, &store.DeleteMemoryRecord{ID: "m1", AdventureID: adventure.ID}))
	list, err := driver.ListMemoryRecords(ctx, &store.FindMemoryRecord{AdventureID: &adventure.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGameCharacterCRUD(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	adventure := createTestAdventure(t, driver, "adv-1")

	created, err := driver.CreateGameCharacter(ctx, &store.GameCharacter{
		ID:          "c1",
		AdventureID: adventure.ID,
		Name:        "Brenna",
		Race:        "Dwarf",
		Class:       "Cleric",
		Level:       3,
		Stats: store.CharacterStats{
			Strength: 14, Dexterity: 8, Constitution: 16,
			Intelligence: 10, Wisdom: 17, Charisma: 12,
		},
		Traits:           []string{"stubborn"},
		HitPointsCurrent: 21,
		HitPointsMax:     24,
		ArmorClass:       18,
		CreatedTs:        1700000000,
		UpdatedTs:        1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, 16, created.Stats.Constitution)

	hp := 12
	updated, err := driver.UpdateGameCharacter(ctx, &store.UpdateGameCharacter{
		ID:               "c1",
		AdventureID:      adventure.ID,
		HitPointsCurrent: &hp,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.HitPointsCurrent)
	assert.Equal(t, "Brenna", updated.Name)

	require.NoError(t, driver.DeleteGameCharacter(ctx, &store.DeleteGameCharacter{ID: "c1", AdventureID: adventure.ID}))
	list, err := driver.ListGameCharacters(ctx, &store.FindGameCharacter{AdventureID: &adventure.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMigrateVersionGuard(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	st := store.New(driver, &profile.Profile{Mode: "prod"})

	require.NoError(t, st.Migrate(ctx))
	stored, err := driver.GetSystemSetting(ctx, "version")
	require.NoError(t, err)
	assert.Equal(t, version.GetMinorVersion(version.GetCurrentVersion("prod")), stored)

	// A database stamped by a newer release line is refused.
	require.NoError(t, driver.UpsertSystemSetting(ctx, "version", "99.0"))
	err = st.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than binary version")
}

func TestDeleteAdventureCascades(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	adventure := createTestAdventure(t, driver, "adv-1")
	other := createTestAdventure(t, driver, "adv-2")

	_, err := driver.CreateConversationTurn(ctx, &store.ConversationTurn{
		ID: "t1", AdventureID: adventure.ID, Role: store.RoleUser, Content: "hi", CreatedTs: 1700000000,
	})
	require.NoError(t, err)
	_, err = driver.CreateMemoryRecord(ctx, &store.MemoryRecord{
		ID: "m1", AdventureID: adventure.ID, Text: "fact", Tags: []string{}, CreatedTs: 1700000000,
	})
	require.NoError(t, err)
	_, err = driver.CreateMemoryRecord(ctx, &store.MemoryRecord{
		ID: "m2", AdventureID: other.ID, Text: "other fact", Tags: []string{}, CreatedTs: 1700000000,
	})
	require.NoError(t, err)

	require.NoError(t, driver.DeleteAdventure(ctx, &store.DeleteAdventure{ID: adventure.ID}))

	turns, err := driver.ListConversationTurns(ctx, &store.FindConversationTurn{AdventureID: &adventure.ID})
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Unrelated adventures keep their records.
	kept, err := driver.ListMemoryRecords(ctx, &store.FindMemoryRecord{AdventureID: &other.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
