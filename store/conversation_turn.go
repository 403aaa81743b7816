package store

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in an adventure's history.
// Turns are append-only: insertion order is chronological order and a turn
// is never mutated after creation.
type ConversationTurn struct {
	ID          string
	Role        Role
	Content     string
	AdventureID int32
	CreatedTs   int64
}

type FindConversationTurn struct {
	AdventureID *int32
	Limit       int
}
