package store

// MemoryRecord is a persisted narrative fact, taggable and recallable.
// Records are created manually by a user or automatically by the extraction
// pipeline, and are only ever deleted by explicit user action.
type MemoryRecord struct {
	ID          string
	Text        string
	Tags        []string
	AdventureID int32
	CreatedTs   int64
}

type FindMemoryRecord struct {
	ID          *string
	AdventureID *int32
}

type UpdateMemoryRecord struct {
	Text        *string
	Tags        *[]string
	ID          string
	AdventureID int32
}

type DeleteMemoryRecord struct {
	ID          string
	AdventureID int32
}
