package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lorekeeper/lorekeeper/internal/profile"
	"github.com/lorekeeper/lorekeeper/internal/version"
)

// versionSettingName is the system setting holding the release line (minor
// version) that last migrated the database.
const versionSettingName = "version"

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the schema and stamps the database with the binary's release
// line. A database stamped by a newer release line is refused: downgrading a
// binary against it risks silent data mangling.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return err
	}

	currentMinor := version.GetMinorVersion(version.GetCurrentVersion(s.profile.Mode))
	storedMinor, err := s.driver.GetSystemSetting(ctx, versionSettingName)
	if err != nil {
		return errors.Wrap(err, "failed to read database version")
	}
	if storedMinor != "" && !version.IsVersionGreaterOrEqualThan(currentMinor, storedMinor) {
		return errors.Errorf("database version %s is newer than binary version %s", storedMinor, currentMinor)
	}
	if storedMinor == "" || version.IsVersionGreaterThan(currentMinor, storedMinor) {
		return s.driver.UpsertSystemSetting(ctx, versionSettingName, currentMinor)
	}
	return nil
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateAdventure(ctx context.Context, create *Adventure) (*Adventure, error) {
	return s.driver.CreateAdventure(ctx, create)
}

func (s *Store) ListAdventures(ctx context.Context, find *FindAdventure) ([]*Adventure, error) {
	return s.driver.ListAdventures(ctx, find)
}

// GetAdventure returns the first adventure matching find, or nil when none match.
func (s *Store) GetAdventure(ctx context.Context, find *FindAdventure) (*Adventure, error) {
	list, err := s.driver.ListAdventures(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateAdventure(ctx context.Context, update *UpdateAdventure) (*Adventure, error) {
	return s.driver.UpdateAdventure(ctx, update)
}

func (s *Store) DeleteAdventure(ctx context.Context, delete *DeleteAdventure) error {
	return s.driver.DeleteAdventure(ctx, delete)
}

func (s *Store) CreateConversationTurn(ctx context.Context, create *ConversationTurn) (*ConversationTurn, error) {
	return s.driver.CreateConversationTurn(ctx, create)
}

func (s *Store) ListConversationTurns(ctx context.Context, find *FindConversationTurn) ([]*ConversationTurn, error) {
	return s.driver.ListConversationTurns(ctx, find)
}

func (s *Store) CreateMemoryRecord(ctx context.Context, create *MemoryRecord) (*MemoryRecord, error) {
	return s.driver.CreateMemoryRecord(ctx, create)
}

func (s *Store) ListMemoryRecords(ctx context.Context, find *FindMemoryRecord) ([]*MemoryRecord, error) {
	return s.driver.ListMemoryRecords(ctx, find)
}

// GetMemoryRecord returns the first memory record matching find, or nil when none match.
func (s *Store) GetMemoryRecord(ctx context.Context, find *FindMemoryRecord) (*MemoryRecord, error) {
	list, err := s.driver.ListMemoryRecords(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateMemoryRecord(ctx context.Context, update *UpdateMemoryRecord) (*MemoryRecord, error) {
	return s.driver.UpdateMemoryRecord(ctx, update)
}

func (s *Store) DeleteMemoryRecord(ctx context.Context, delete *DeleteMemoryRecord) error {
	return s.driver.DeleteMemoryRecord(ctx, delete)
}

func (s *Store) CreateGameCharacter(ctx context.Context, create *GameCharacter) (*GameCharacter, error) {
	return s.driver.CreateGameCharacter(ctx, create)
}

func (s *Store) ListGameCharacters(ctx context.Context, find *FindGameCharacter) ([]*GameCharacter, error) {
	return s.driver.ListGameCharacters(ctx, find)
}

// GetGameCharacter returns the first character matching find, or nil when none match.
func (s *Store) GetGameCharacter(ctx context.Context, find *FindGameCharacter) (*GameCharacter, error) {
	list, err := s.driver.ListGameCharacters(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateGameCharacter(ctx context.Context, update *UpdateGameCharacter) (*GameCharacter, error) {
	return s.driver.UpdateGameCharacter(ctx, update)
}

func (s *Store) DeleteGameCharacter(ctx context.Context, delete *DeleteGameCharacter) error {
	return s.driver.DeleteGameCharacter(ctx, delete)
}
