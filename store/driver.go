package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// System setting related methods. Settings are plain key-value pairs.
	UpsertSystemSetting(ctx context.Context, name, value string) error
	GetSystemSetting(ctx context.Context, name string) (string, error)

	// Adventure model related methods.
	CreateAdventure(ctx context.Context, create *Adventure) (*Adventure, error)
	ListAdventures(ctx context.Context, find *FindAdventure) ([]*Adventure, error)
	UpdateAdventure(ctx context.Context, update *UpdateAdventure) (*Adventure, error)
	DeleteAdventure(ctx context.Context, delete *DeleteAdventure) error

	// ConversationTurn model related methods. Turns are append-only.
	CreateConversationTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error)
	ListConversationTurns(ctx context.Context, find *FindConversationTurn) ([]*ConversationTurn, error)

	// MemoryRecord model related methods.
	CreateMemoryRecord(ctx context.Context, create *MemoryRecord) (*MemoryRecord, error)
	ListMemoryRecords(ctx context.Context, find *FindMemoryRecord) ([]*MemoryRecord, error)
	UpdateMemoryRecord(ctx context.Context, update *UpdateMemoryRecord) (*MemoryRecord, error)
	DeleteMemoryRecord(ctx context.Context, delete *DeleteMemoryRecord) error

	// GameCharacter model related methods.
	CreateGameCharacter(ctx context.Context, create *GameCharacter) (*GameCharacter, error)
	ListGameCharacters(ctx context.Context, find *FindGameCharacter) ([]*GameCharacter, error)
	UpdateGameCharacter(ctx context.Context, update *UpdateGameCharacter) (*GameCharacter, error)
	DeleteGameCharacter(ctx context.Context, delete *DeleteGameCharacter) error
}
