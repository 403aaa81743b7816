package store

// CharacterStats holds the six ability scores as provided by the caller.
// No derived-stat arithmetic (modifiers, HP/AC formulas) happens here.
type CharacterStats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// GameCharacter is a player character sheet attached to an adventure.
// The pipeline treats it as opaque status data rendered into the narrative
// prompt.
type GameCharacter struct {
	ID               string
	Name             string
	Race             string
	Class            string
	Stats            CharacterStats
	Traits           []string
	Level            int
	HitPointsCurrent int
	HitPointsMax     int
	ArmorClass       int
	AdventureID      int32
	CreatedTs        int64
	UpdatedTs        int64
}

type FindGameCharacter struct {
	ID          *string
	AdventureID *int32
}

type UpdateGameCharacter struct {
	Name             *string
	Race             *string
	Class            *string
	Stats            *CharacterStats
	Traits           *[]string
	Level            *int
	HitPointsCurrent *int
	HitPointsMax     *int
	ArmorClass       *int
	UpdatedTs        *int64
	ID               string
	AdventureID      int32
}

type DeleteGameCharacter struct {
	ID          string
	AdventureID int32
}
