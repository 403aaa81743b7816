package v1

import (
	"github.com/lorekeeper/lorekeeper/store"
)

// Wire types. Timestamps are unix seconds.

type Adventure struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PlayerCount int32  `json:"playerCount"`
	CreatedTs   int64  `json:"createdTs"`
	UpdatedTs   int64  `json:"updatedTs"`
}

type AdventureDetail struct {
	Adventure
	Turns      []*ConversationTurn `json:"turns"`
	Memories   []*MemoryRecord     `json:"memories"`
	Characters []*GameCharacter    `json:"characters"`
}

type ConversationTurn struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"createdTs"`
}

type MemoryRecord struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Tags      []string `json:"tags"`
	CreatedTs int64    `json:"createdTs"`
}

type HitPoints struct {
	Current int `json:"current"`
	Maximum int `json:"maximum"`
}

type GameCharacter struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Race       string               `json:"race"`
	Class      string               `json:"class"`
	Level      int                  `json:"level"`
	Stats      store.CharacterStats `json:"stats"`
	Traits     []string             `json:"traits"`
	HitPoints  HitPoints            `json:"hitPoints"`
	ArmorClass int                  `json:"armorClass"`
	CreatedTs  int64                `json:"createdTs"`
	UpdatedTs  int64                `json:"updatedTs"`
}

type MemoryReport struct {
	Saved    []*MemoryRecord `json:"saved"`
	Recalled []*MemoryRecord `json:"recalled"`
}

type TurnResponse struct {
	Turn         *ConversationTurn `json:"turn"`
	MemoryReport MemoryReport      `json:"memoryReport"`
}

func convertAdventureFromStore(adventure *store.Adventure) *Adventure {
	return &Adventure{
		UID:         adventure.UID,
		Name:        adventure.Name,
		Description: adventure.Description,
		PlayerCount: adventure.PlayerCount,
		CreatedTs:   adventure.CreatedTs,
		UpdatedTs:   adventure.UpdatedTs,
	}
}

func convertTurnFromStore(turn *store.ConversationTurn) *ConversationTurn {
	return &ConversationTurn{
		ID:        turn.ID,
		Role:      string(turn.Role),
		Content:   turn.Content,
		CreatedTs: turn.CreatedTs,
	}
}

func convertMemoryFromStore(memory *store.MemoryRecord) *MemoryRecord {
	tags := memory.Tags
	if tags == nil {
		tags = []string{}
	}
	return &MemoryRecord{
		ID:        memory.ID,
		Text:      memory.Text,
		Tags:      tags,
		CreatedTs: memory.CreatedTs,
	}
}

func convertMemoriesFromStore(memories []*store.MemoryRecord) []*MemoryRecord {
	list := make([]*MemoryRecord, 0, len(memories))
	for _, memory := range memories {
		list = append(list, convertMemoryFromStore(memory))
	}
	return list
}

func convertCharacterFromStore(character *store.GameCharacter) *GameCharacter {
	traits := character.Traits
	if traits == nil {
		traits = []string{}
	}
	return &GameCharacter{
		ID:     character.ID,
		Name:   character.Name,
		Race:   character.Race,
		Class:  character.Class,
		Level:  character.Level,
		Stats:  character.Stats,
		Traits: traits,
		HitPoints: HitPoints{
			Current: character.HitPointsCurrent,
			Maximum: character.HitPointsMax,
		},
		ArmorClass: character.ArmorClass,
		CreatedTs:  character.CreatedTs,
		UpdatedTs:  character.UpdatedTs,
	}
}
