package v1

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lorekeeper/lorekeeper/store"
)

// fakeDriver is an in-memory store.Driver for handler tests.
type fakeDriver struct {
	mu         sync.Mutex
	nextID     int32
	adventures []*store.Adventure
	turns      []*store.ConversationTurn
	memories   []*store.MemoryRecord
	characters []*store.GameCharacter
	settings   map[string]string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{nextID: 1, settings: map[string]string{}}
}

func (d *fakeDriver) GetDB() *sql.DB                { return nil }
func (d *fakeDriver) Close() error                  { return nil }
func (d *fakeDriver) Migrate(context.Context) error { return nil }

func (d *fakeDriver) UpsertSystemSetting(_ context.Context, name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings[name] = value
	return nil
}

func (d *fakeDriver) GetSystemSetting(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings[name], nil
}

func (d *fakeDriver) CreateAdventure(_ context.Context, create *store.Adventure) (*store.Adventure, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	create.ID = d.nextID
	d.nextID++
	d.adventures = append(d.adventures, create)
	return create, nil
}

func (d *fakeDriver) ListAdventures(_ context.Context, find *store.FindAdventure) ([]*store.Adventure, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Adventure{}
	for _, adventure := range d.adventures {
		if find.ID != nil && adventure.ID != *find.ID {
			continue
		}
		if find.UID != nil && adventure.UID != *find.UID {
			continue
		}
		list = append(list, adventure)
	}
	return list, nil
}

func (d *fakeDriver) UpdateAdventure(_ context.Context, update *store.UpdateAdventure) (*store.Adventure, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, adventure := range d.adventures {
		if adventure.ID != update.ID {
			continue
		}
		if update.Name != nil {
			adventure.Name = *update.Name
		}
		if update.Description != nil {
			adventure.Description = *update.Description
		}
		if update.PlayerCount != nil {
			adventure.PlayerCount = *update.PlayerCount
		}
		if update.UpdatedTs != nil {
			adventure.UpdatedTs = *update.UpdatedTs
		}
		return adventure, nil
	}
	return nil, errors.New("adventure not found")
}

func (d *fakeDriver) DeleteAdventure(_ context.Context, delete *store.DeleteAdventure) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.adventures[:0]
	for _, adventure := range d.adventures {
		if adventure.ID != delete.ID {
			kept = append(kept, adventure)
		}
	}
	d.adventures = kept
	return nil
}

func (d *fakeDriver) CreateConversationTurn(_ context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.turns = append(d.turns, create)
	return create, nil
}

func (d *fakeDriver) ListConversationTurns(_ context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.ConversationTurn{}
	for _, turn := range d.turns {
		if find.AdventureID != nil && turn.AdventureID != *find.AdventureID {
			continue
		}
		list = append(list, turn)
	}
	return list, nil
}

func (d *fakeDriver) CreateMemoryRecord(_ context.Context, create *store.MemoryRecord) (*store.MemoryRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memories = append(d.memories, create)
	return create, nil
}

func (d *fakeDriver) ListMemoryRecords(_ context.Context, find *store.FindMemoryRecord) ([]*store.MemoryRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.MemoryRecord{}
	for _, memory := range d.memories {
		if find.ID != nil && memory.ID != *find.ID {
			continue
		}
		if find.AdventureID != nil && memory.AdventureID != *find.AdventureID {
			continue
		}
		list = append(list, memory)
	}
	return list, nil
}

func (d *fakeDriver) UpdateMemoryRecord(_ context.Context, update *store.UpdateMemoryRecord) (*store.MemoryRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, memory := range d.memories {
		if memory.ID != update.ID || memory.AdventureID != update.AdventureID {
			continue
		}
		if update.Text != nil {
			memory.Text = *update.Text
		}
		if update.Tags != nil {
			memory.Tags = *update.Tags
		}
		return memory, nil
	}
	return nil, errors.New("memory not found")
}

func (d *fakeDriver) DeleteMemoryRecord(_ context.Context, delete *store.DeleteMemoryRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.memories[:0]
	for _, memory := range d.memories {
		if memory.ID != delete.ID || memory.AdventureID != delete.AdventureID {
			kept = append(kept, memory)
		}
	}
	d.memories = kept
	return nil
}

func (d *fakeDriver) CreateGameCharacter(_ context.Context, create *store.GameCharacter) (*store.GameCharacter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.characters = append(d.characters, create)
	return create, nil
}

func (d *fakeDriver) ListGameCharacters(_ context.Context, find *store.FindGameCharacter) ([]*store.GameCharacter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.GameCharacter{}
	for _, character := range d.characters {
		if find.ID != nil && character.ID != *find.ID {
			continue
		}
		if find.AdventureID != nil && character.AdventureID != *find.AdventureID {
			continue
		}
		list = append(list, character)
	}
	return list, nil
}

func (d *fakeDriver) UpdateGameCharacter(_ context.Context, update *store.UpdateGameCharacter) (*store.GameCharacter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, character := range d.characters {
		if character.ID != update.ID || character.AdventureID != update.AdventureID {
			continue
		}
		if update.Name != nil {
			character.Name = *update.Name
		}
		if update.Race != nil {
			character.Race = *update.Race
		}
		if update.Class != nil {
			character.Class = *update.Class
		}
		if update.Level != nil {
			character.Level = *update.Level
		}
		if update.Stats != nil {
			character.Stats = *update.Stats
		}
		if update.Traits != nil {
			character.Traits = *update.Traits
		}
		if update.HitPointsCurrent != nil {
			character.HitPointsCurrent = *update.HitPointsCurrent
		}
		if update.HitPointsMax != nil {
			character.HitPointsMax = *update.HitPointsMax
		}
		if update.ArmorClass != nil {
			character.ArmorClass = *update.ArmorClass
		}
		if update.UpdatedTs != nil {
			character.UpdatedTs = *update.UpdatedTs
		}
		return character, nil
	}
	return nil, errors.New("character not found")
}

func (d *fakeDriver) DeleteGameCharacter(_ context.Context, delete *store.DeleteGameCharacter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.characters[:0]
	for _, character := range d.characters {
		if character.ID != delete.ID || character.AdventureID != delete.AdventureID {
			kept = append(kept, character)
		}
	}
	d.characters = kept
	return nil
}
