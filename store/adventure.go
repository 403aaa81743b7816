package store

// Adventure is one role-play campaign: a named conversation with its own
// turn history, memory records, and characters.
type Adventure struct {
	UID         string
	Name        string
	Description string
	ID          int32
	PlayerCount int32
	CreatedTs   int64
	UpdatedTs   int64
}

type FindAdventure struct {
	ID  *int32
	UID *string
}

type UpdateAdventure struct {
	Name        *string
	Description *string
	PlayerCount *int32
	UpdatedTs   *int64
	ID          int32
}

type DeleteAdventure struct {
	ID int32
}
