package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeeper/lorekeeper/ai/core/llm"
	"github.com/lorekeeper/lorekeeper/ai/extraction"
	"github.com/lorekeeper/lorekeeper/store"
)

type fakeStore struct {
	mu         sync.Mutex
	adventures []*store.Adventure
	turns      []*store.ConversationTurn
	memories   []*store.MemoryRecord
	characters []*store.GameCharacter

	listTurnsErr  error
	createTurnErr error
}

func (f *fakeStore) GetAdventure(_ context.Context, find *store.FindAdventure) (*store.Adventure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, adventure := range f.adventures {
		if find.UID != nil && adventure.UID == *find.UID {
			return adventure, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListConversationTurns(_ context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listTurnsErr != nil {
		return nil, f.listTurnsErr
	}
	list := []*store.ConversationTurn{}
	for _, turn := range f.turns {
		if find.AdventureID == nil || turn.AdventureID == *find.AdventureID {
			list = append(list, turn)
		}
	}
	return list, nil
}

func (f *fakeStore) CreateConversationTurn(_ context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTurnErr != nil {
		return nil, f.createTurnErr
	}
	f.turns = append(f.turns, create)
	return create, nil
}

func (f *fakeStore) ListMemoryRecords(_ context.Context, find *store.FindMemoryRecord) ([]*store.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []*store.MemoryRecord{}
	for _, memory := range f.memories {
		if find.AdventureID == nil || memory.AdventureID == *find.AdventureID {
			list = append(list, memory)
		}
	}
	return list, nil
}

func (f *fakeStore) CreateMemoryRecord(_ context.Context, create *store.MemoryRecord) (*store.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories = append(f.memories, create)
	return create, nil
}

func (f *fakeStore) ListGameCharacters(_ context.Context, find *store.FindGameCharacter) ([]*store.GameCharacter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []*store.GameCharacter{}
	for _, character := range f.characters {
		if find.AdventureID == nil || character.AdventureID == *find.AdventureID {
			list = append(list, character)
		}
	}
	return list, nil
}

func (f *fakeStore) turnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns)
}

type fakeExtractor struct {
	result extraction.Result
}

func (f *fakeExtractor) Extract(context.Context, *extraction.Request) extraction.Result {
	return f.result
}

type fakeNarrative struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]llm.Message
}

func (f *fakeNarrative) Chat(_ context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, &llm.LLMCallStats{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeNarrative) Warmup(context.Context) {}

// gateNarrative parks every Chat call until release is closed, reporting the
// system prompt of each call as it starts.
type gateNarrative struct {
	started chan string
	release chan struct{}
}

func (g *gateNarrative) Chat(_ context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	g.started <- messages[0].Content
	<-g.release
	return "done", nil, nil
}

func (g *gateNarrative) Warmup(context.Context) {}

func (f *fakeNarrative) lastMessages() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return nil
	}
	return f.messages[len(f.messages)-1]
}

func seededStore() *fakeStore {
	return &fakeStore{
		adventures: []*store.Adventure{
			{ID: 1, UID: "adv-1", Name: "The Hollow Crown", Description: "A kingdom on the edge of civil war."},
		},
		memories: []*store.MemoryRecord{
			{ID: "m1", AdventureID: 1, Text: "The king is dead", Tags: []string{"king", "death"}},
		},
	}
}

func TestProcessTurn(t *testing.T) {
	t.Run("full pipeline with save and recall", func(t *testing.T) {
		st := seededStore()
		narrative := &fakeNarrative{reply: "A hush falls over the court."}
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{
			NewMemoryTexts: []string{"A hidden dagger was found"},
			NewMemoryTags:  [][]string{{"dagger", "clue"}},
			RecallIDs:      []string{"m1"},
			SearchKeywords: []string{"king"},
			Succeeded:      true,
		}}, narrative, nil, Config{})

		result, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "I ask about the king.")
		require.NoError(t, err)

		assert.Equal(t, "A hush falls over the court.", result.AssistantTurn.Content)
		assert.Equal(t, store.RoleAssistant, result.AssistantTurn.Role)

		require.Len(t, result.Report.Saved, 1)
		assert.Equal(t, "A hidden dagger was found", result.Report.Saved[0].Text)
		assert.Equal(t, []string{"dagger", "clue"}, result.Report.Saved[0].Tags)

		// m1 matched both by keyword and explicit id, included once.
		require.Len(t, result.Report.Recalled, 1)
		assert.Equal(t, "m1", result.Report.Recalled[0].ID)

		// Both turns and the new memory were persisted.
		assert.Equal(t, 2, st.turnCount())
		assert.Len(t, st.memories, 2)

		messages := narrative.lastMessages()
		require.NotEmpty(t, messages)
		system := messages[0]
		assert.Equal(t, "system", system.Role)
		assert.Contains(t, system.Content, "## IMPORTANT MEMORIES:")
		assert.Contains(t, system.Content, "The king is dead")
		assert.Contains(t, system.Content, `"The Hollow Crown"`)
		// The player's message is the final user message.
		assert.Equal(t, "I ask about the king.", messages[len(messages)-1].Content)
	})

	t.Run("extraction failure is not fatal", func(t *testing.T) {
		st := seededStore()
		narrative := &fakeNarrative{reply: "The road stretches on."}
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{}}, narrative, nil, Config{})

		result, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "I keep walking.")
		require.NoError(t, err)

		assert.Equal(t, "The road stretches on.", result.AssistantTurn.Content)
		assert.Empty(t, result.Report.Saved)
		assert.Empty(t, result.Report.Recalled)
		assert.NotContains(t, narrative.lastMessages()[0].Content, "## IMPORTANT MEMORIES:")
		assert.Equal(t, 2, st.turnCount())
	})

	t.Run("narrative failure aborts without writes", func(t *testing.T) {
		st := seededStore()
		chatErr := fmt.Errorf("%w: api key is invalid", llm.ErrMisconfigured)
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{Succeeded: true}}, &fakeNarrative{err: chatErr}, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "Hello?")
		require.Error(t, err)
		assert.True(t, llm.IsMisconfigured(err))

		// A failed turn leaves the adventure untouched.
		assert.Equal(t, 0, st.turnCount())
		assert.Len(t, st.memories, 1)
	})

	t.Run("unknown adventure", func(t *testing.T) {
		orchestrator := NewOrchestrator(seededStore(), &fakeExtractor{}, &fakeNarrative{reply: "x"}, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "missing", "Hello?")
		assert.True(t, errors.Is(err, ErrAdventureNotFound))
	})

	t.Run("blank message", func(t *testing.T) {
		orchestrator := NewOrchestrator(seededStore(), &fakeExtractor{}, &fakeNarrative{reply: "x"}, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "   ")
		assert.True(t, errors.Is(err, ErrEmptyMessage))
	})

	t.Run("character sheet rendered into system prompt", func(t *testing.T) {
		st := seededStore()
		st.characters = []*store.GameCharacter{{
			ID: "c1", AdventureID: 1, Name: "Brenna", Race: "Dwarf", Class: "Cleric",
			Level: 3, HitPointsCurrent: 21, HitPointsMax: 24, ArmorClass: 18,
			Stats:  store.CharacterStats{Strength: 14, Dexterity: 8, Constitution: 16, Intelligence: 10, Wisdom: 17, Charisma: 12},
			Traits: []string{"stubborn", "devout"},
		}}
		narrative := &fakeNarrative{reply: "Brenna nods."}
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{}}, narrative, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "I look at Brenna.")
		require.NoError(t, err)

		system := narrative.lastMessages()[0].Content
		assert.Contains(t, system, "## CHARACTER INFORMATION:")
		assert.Contains(t, system, "Name: Brenna")
		assert.Contains(t, system, "HP: 21/24")
		assert.Contains(t, system, "STR 14")
		assert.Contains(t, system, "Traits: stubborn, devout")
	})

	t.Run("store failure while loading is tagged", func(t *testing.T) {
		st := seededStore()
		st.listTurnsErr = errors.New("disk I/O error")
		orchestrator := NewOrchestrator(st, &fakeExtractor{}, &fakeNarrative{reply: "x"}, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "Hello?")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStoreFailure))
		assert.False(t, llm.IsMisconfigured(err))
		assert.Equal(t, "storage", turnStatus(err))
	})

	t.Run("store failure while persisting is tagged", func(t *testing.T) {
		st := seededStore()
		st.createTurnErr = errors.New("database is locked")
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{Succeeded: true}}, &fakeNarrative{reply: "x"}, nil, Config{})

		_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", "Hello?")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStoreFailure))
	})

	t.Run("queued turns do not hold global capacity", func(t *testing.T) {
		st := seededStore()
		st.adventures = append(st.adventures, &store.Adventure{ID: 2, UID: "adv-2", Name: "Sidequest"})
		narrative := &gateNarrative{started: make(chan string, 4), release: make(chan struct{})}
		orchestrator := NewOrchestrator(st, &fakeExtractor{}, narrative, nil, Config{MaxConcurrentTurns: 2})

		ctx := context.Background()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orchestrator.ProcessTurn(ctx, "adv-1", "one")
			assert.NoError(t, err)
		}()
		// The first turn is inside its narrative call, holding one slot.
		assert.Contains(t, <-narrative.started, "The Hollow Crown")

		// A second turn on the same adventure queues behind the first.
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orchestrator.ProcessTurn(ctx, "adv-1", "two")
			assert.NoError(t, err)
		}()
		time.Sleep(50 * time.Millisecond)

		// A turn on an unrelated adventure must still reach its narrative call.
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orchestrator.ProcessTurn(ctx, "adv-2", "three")
			assert.NoError(t, err)
		}()

		select {
		case system := <-narrative.started:
			assert.Contains(t, system, "Sidequest")
		case <-time.After(2 * time.Second):
			t.Fatal("turn on an unrelated adventure never started while another adventure's turns were queued")
		}

		close(narrative.release)
		wg.Wait()
	})

	t.Run("concurrent turns on one adventure are serialized", func(t *testing.T) {
		st := seededStore()
		narrative := &fakeNarrative{reply: "Noted."}
		orchestrator := NewOrchestrator(st, &fakeExtractor{result: extraction.Result{}}, narrative, nil, Config{MaxConcurrentTurns: 4})

		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := orchestrator.ProcessTurn(context.Background(), "adv-1", fmt.Sprintf("message %d", n))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		// Every turn committed its user+assistant pair.
		require.Equal(t, workers*2, st.turnCount())
		for i := 0; i < len(st.turns); i += 2 {
			assert.Equal(t, store.RoleUser, st.turns[i].Role)
			assert.Equal(t, store.RoleAssistant, st.turns[i+1].Role)
		}
	})
}

func TestTailTurns(t *testing.T) {
	turns := make([]*store.ConversationTurn, 0, 15)
	for i := 0; i < 15; i++ {
		turns = append(turns, &store.ConversationTurn{Content: fmt.Sprintf("t%d", i)})
	}

	tail := tailTurns(turns, 10)
	require.Len(t, tail, 10)
	assert.Equal(t, "t5", tail[0].Content)
	assert.Equal(t, "t14", tail[9].Content)

	short := tailTurns(turns[:3], 10)
	assert.Len(t, short, 3)
}

func TestTurnStatus(t *testing.T) {
	assert.Equal(t, "success", turnStatus(nil))
	assert.Equal(t, "invalid", turnStatus(ErrAdventureNotFound))
	assert.Equal(t, "invalid", turnStatus(fmt.Errorf("wrap: %w", ErrEmptyMessage)))
	assert.Equal(t, "storage", turnStatus(fmt.Errorf("wrap: %w", ErrStoreFailure)))
	assert.Equal(t, "misconfigured", turnStatus(fmt.Errorf("wrap: %w", llm.ErrMisconfigured)))
	assert.Equal(t, "transient", turnStatus(errors.New("connection reset")))
}

func TestBuildNarrativeMessagesHistoryOrder(t *testing.T) {
	adventure := &store.Adventure{Name: "Trail"}
	history := []*store.ConversationTurn{
		{Role: store.RoleUser, Content: "first"},
		{Role: store.RoleAssistant, Content: "second"},
	}
	userTurn := &store.ConversationTurn{Role: store.RoleUser, Content: "third"}

	messages := buildNarrativeMessages(adventure, nil, nil, history, userTurn)

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "first", messages[1].Content)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "second", messages[2].Content)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "third", messages[3].Content)
	assert.True(t, strings.Contains(messages[0].Content, "Dungeon Master"))
}
