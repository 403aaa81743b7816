// Package turn sequences one player message through the memory pipeline and
// the narrative model: append the user turn, extract and recall memories,
// build the augmented prompt, generate the reply, persist everything.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/lorekeeper/lorekeeper/ai/core/llm"
	"github.com/lorekeeper/lorekeeper/ai/extraction"
	"github.com/lorekeeper/lorekeeper/ai/metrics"
	"github.com/lorekeeper/lorekeeper/ai/recall"
	"github.com/lorekeeper/lorekeeper/store"
)

// ErrAdventureNotFound is returned when the requested adventure does not exist.
var ErrAdventureNotFound = errors.New("adventure not found")

// ErrEmptyMessage is returned when the player message is blank.
var ErrEmptyMessage = errors.New("message text is required")

// ErrStoreFailure tags errors from the persistence layer so callers can tell
// them apart from narrative-backend failures.
var ErrStoreFailure = errors.New("store operation failed")

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetAdventure(ctx context.Context, find *store.FindAdventure) (*store.Adventure, error)
	ListConversationTurns(ctx context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error)
	CreateConversationTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error)
	ListMemoryRecords(ctx context.Context, find *store.FindMemoryRecord) ([]*store.MemoryRecord, error)
	CreateMemoryRecord(ctx context.Context, create *store.MemoryRecord) (*store.MemoryRecord, error)
	ListGameCharacters(ctx context.Context, find *store.FindGameCharacter) ([]*store.GameCharacter, error)
}

// Extractor decides what to remember and recall for one turn. Implementations
// never fail hard; a failed extraction is a Result with Succeeded=false.
type Extractor interface {
	Extract(ctx context.Context, req *extraction.Request) extraction.Result
}

// Report summarizes the memory activity of one turn for the caller.
type Report struct {
	Saved    []*store.MemoryRecord
	Recalled []*store.MemoryRecord
}

// Result is the outcome of one successful turn.
type Result struct {
	AssistantTurn *store.ConversationTurn
	Report        Report
}

// Config tunes the orchestrator.
type Config struct {
	// TurnWindow is how many recent turns the extraction prompt sees (default 10).
	TurnWindow int
	// RecallCap bounds the injected memory set (default 5).
	RecallCap int
	// MaxConcurrentTurns bounds turns in flight across all adventures (default 8).
	MaxConcurrentTurns int64
}

// Orchestrator runs turns. Turns on the same adventure are serialized with a
// per-adventure mutex so a turn's read-extract-write cycle never races a
// concurrent turn on the same history; turns on different adventures proceed
// independently under a global concurrency cap.
type Orchestrator struct {
	store     Store
	extractor Extractor
	narrative llm.Service
	exporter  *metrics.PrometheusExporter

	turnWindow int
	recallCap  int
	sem        *semaphore.Weighted

	mu    sync.Mutex
	locks map[int32]*sync.Mutex
}

// NewOrchestrator creates a turn orchestrator. exporter may be nil.
func NewOrchestrator(s Store, extractor Extractor, narrative llm.Service, exporter *metrics.PrometheusExporter, cfg Config) *Orchestrator {
	if cfg.TurnWindow <= 0 {
		cfg.TurnWindow = 10
	}
	if cfg.RecallCap <= 0 {
		cfg.RecallCap = recall.DefaultCap
	}
	if cfg.MaxConcurrentTurns <= 0 {
		cfg.MaxConcurrentTurns = 8
	}
	return &Orchestrator{
		store:      s,
		extractor:  extractor,
		narrative:  narrative,
		exporter:   exporter,
		turnWindow: cfg.TurnWindow,
		recallCap:  cfg.RecallCap,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrentTurns),
		locks:      make(map[int32]*sync.Mutex),
	}
}

// adventureLock returns the mutex serializing turns for one adventure.
// Locks are never evicted; one mutex per adventure that has seen a turn is an
// acceptable footprint for this workload.
func (o *Orchestrator) adventureLock(adventureID int32) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[adventureID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[adventureID] = lock
	}
	return lock
}

// ProcessTurn runs one player message through the full pipeline.
//
// Memory work is best-effort: extraction failures are logged, counted, and
// otherwise invisible. Narrative failure is the one fatal pipeline failure
// and arrives pre-classified (llm.IsMisconfigured distinguishes configuration
// problems from transient ones). Nothing is persisted unless the narrative
// call succeeded, so a failed turn leaves the adventure unchanged.
func (o *Orchestrator) ProcessTurn(ctx context.Context, adventureUID, messageText string) (*Result, error) {
	if strings.TrimSpace(messageText) == "" {
		return nil, ErrEmptyMessage
	}

	adventure, err := o.store.GetAdventure(ctx, &store.FindAdventure{UID: &adventureUID})
	if err != nil {
		return nil, storeFailure("failed to load adventure", err)
	}
	if adventure == nil {
		return nil, ErrAdventureNotFound
	}

	lock := o.adventureLock(adventure.ID)
	lock.Lock()
	defer lock.Unlock()

	// The global slot is taken only after the adventure lock is held: a turn
	// queued behind another turn on the same adventure consumes no capacity,
	// so unrelated adventures keep running.
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire turn slot: %w", err)
	}
	defer o.sem.Release(1)

	if o.exporter != nil {
		done := o.exporter.TurnStarted()
		defer done()
	}
	startTime := time.Now()

	result, err := o.runTurn(ctx, adventure, messageText)
	if o.exporter != nil {
		o.exporter.RecordTurn(turnStatus(err), time.Since(startTime))
	}
	return result, err
}

func (o *Orchestrator) runTurn(ctx context.Context, adventure *store.Adventure, messageText string) (*Result, error) {
	history, err := o.store.ListConversationTurns(ctx, &store.FindConversationTurn{AdventureID: &adventure.ID})
	if err != nil {
		return nil, storeFailure("failed to load conversation", err)
	}
	memories, err := o.store.ListMemoryRecords(ctx, &store.FindMemoryRecord{AdventureID: &adventure.ID})
	if err != nil {
		return nil, storeFailure("failed to load memories", err)
	}
	characters, err := o.store.ListGameCharacters(ctx, &store.FindGameCharacter{AdventureID: &adventure.ID})
	if err != nil {
		return nil, storeFailure("failed to load characters", err)
	}

	now := time.Now()
	userTurn := &store.ConversationTurn{
		ID:          uuid.New().String(),
		Role:        store.RoleUser,
		Content:     messageText,
		AdventureID: adventure.ID,
		CreatedTs:   now.Unix(),
	}

	decision := o.extractor.Extract(ctx, &extraction.Request{
		AdventureName:        adventure.Name,
		AdventureDescription: adventure.Description,
		UserMessage:          messageText,
		RecentTurns:          tailTurns(history, o.turnWindow),
		Memories:             memories,
	})
	if !decision.Succeeded {
		slog.Warn("turn: extraction failed, proceeding without memory augmentation",
			"adventure", adventure.UID)
		if o.exporter != nil {
			o.exporter.RecordExtractionFailure()
		}
	}

	newRecords := recall.NewMemoryRecords(adventure.ID, decision.NewMemoryTexts, decision.NewMemoryTags, now)
	// New records join the live memory set before recall so this turn's own
	// facts are eligible for keyword matching.
	recallSet := recall.BuildRecallSet(append(memories, newRecords...), decision.SearchKeywords, decision.RecallIDs, o.recallCap)

	messages := buildNarrativeMessages(adventure, characters, recallSet, history, userTurn)

	reply, stats, err := o.narrative.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed: %w", err)
	}
	if o.exporter != nil && stats != nil {
		o.exporter.RecordLLMTokens("narrative", "prompt", stats.PromptTokens)
		o.exporter.RecordLLMTokens("narrative", "completion", stats.CompletionTokens)
	}

	assistantTurn := &store.ConversationTurn{
		ID:          uuid.New().String(),
		Role:        store.RoleAssistant,
		Content:     reply,
		AdventureID: adventure.ID,
		CreatedTs:   time.Now().Unix(),
	}

	// Persist only after generation succeeded: a failed turn writes nothing.
	if _, err := o.store.CreateConversationTurn(ctx, userTurn); err != nil {
		return nil, storeFailure("failed to persist user turn", err)
	}
	saved := make([]*store.MemoryRecord, 0, len(newRecords))
	for _, record := range newRecords {
		created, err := o.store.CreateMemoryRecord(ctx, record)
		if err != nil {
			return nil, storeFailure("failed to persist memory", err)
		}
		saved = append(saved, created)
	}
	if _, err := o.store.CreateConversationTurn(ctx, assistantTurn); err != nil {
		return nil, storeFailure("failed to persist assistant turn", err)
	}

	if o.exporter != nil {
		o.exporter.RecordMemoryActivity(len(saved), len(recallSet))
	}
	slog.Debug("turn: completed",
		"adventure", adventure.UID,
		"memories_saved", len(saved),
		"memories_recalled", len(recallSet),
	)

	return &Result{
		AssistantTurn: assistantTurn,
		Report:        Report{Saved: saved, Recalled: recallSet},
	}, nil
}

// tailTurns returns the most recent limit turns, oldest first.
func tailTurns(turns []*store.ConversationTurn, limit int) []*store.ConversationTurn {
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

func turnStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAdventureNotFound), errors.Is(err, ErrEmptyMessage):
		return "invalid"
	case errors.Is(err, ErrStoreFailure):
		return "storage"
	case llm.IsMisconfigured(err):
		return "misconfigured"
	default:
		return "transient"
	}
}
