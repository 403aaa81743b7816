// Package recall turns an extraction decision into persisted memory records
// and the bounded memory set injected into the next narrative prompt.
package recall

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorekeeper/lorekeeper/store"
)

// DefaultCap is the default maximum number of memories injected into one
// prompt augmentation.
const DefaultCap = 5

// contextHeading opens the injected memory block in the system prompt.
const contextHeading = "## IMPORTANT MEMORIES:"

// NewMemoryRecords builds persistable records from extraction candidates, in
// candidate order. Each record gets a fresh uuid and the tag set at its index;
// a missing tag set becomes empty rather than nil.
func NewMemoryRecords(adventureID int32, texts []string, tags [][]string, now time.Time) []*store.MemoryRecord {
	records := make([]*store.MemoryRecord, 0, len(texts))
	for i, text := range texts {
		recordTags := []string{}
		if i < len(tags) && tags[i] != nil {
			recordTags = tags[i]
		}
		records = append(records, &store.MemoryRecord{
			ID:          uuid.New().String(),
			AdventureID: adventureID,
			Text:        text,
			Tags:        recordTags,
			CreatedTs:   now.Unix(),
		})
	}
	return records
}

// BuildRecallSet selects the memories to inject into the next prompt.
//
// Two passes over the store feed the set. The keyword pass walks memories in
// the given order (oldest first, including any records created this turn) and
// includes every memory where any tag case-insensitively contains any search
// keyword. The explicit-id pass then appends memories named in recallIDs, in
// that order, skipping ids already present. Unknown recall ids are ignored.
// The merged set is truncated to limit entries; keyword matches fill the cap
// first.
func BuildRecallSet(memories []*store.MemoryRecord, keywords, recallIDs []string, limit int) []*store.MemoryRecord {
	if limit <= 0 {
		limit = DefaultCap
	}

	selected := make([]*store.MemoryRecord, 0, limit)
	seen := make(map[string]bool)

	for _, memory := range memories {
		if matchesAnyKeyword(memory.Tags, keywords) && !seen[memory.ID] {
			selected = append(selected, memory)
			seen[memory.ID] = true
		}
	}

	byID := make(map[string]*store.MemoryRecord, len(memories))
	for _, memory := range memories {
		byID[memory.ID] = memory
	}
	for _, id := range recallIDs {
		memory, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		selected = append(selected, memory)
		seen[id] = true
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// ContextBlock renders the recall set as the block prepended to the narrative
// system prompt. An empty set renders nothing.
func ContextBlock(records []*store.MemoryRecord) string {
	if len(records) == 0 {
		return ""
	}
	texts := make([]string, 0, len(records))
	for _, record := range records {
		texts = append(texts, record.Text)
	}
	return contextHeading + "\n" + strings.Join(texts, "\n\n")
}

func matchesAnyKeyword(tags, keywords []string) bool {
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), keyword) {
				return true
			}
		}
	}
	return false
}
