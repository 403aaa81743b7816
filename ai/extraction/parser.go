package extraction

import (
	"encoding/json"
	"strings"
)

// decisionPayload mirrors the four arrays the prompt demands. Fields are kept
// raw so each one can degrade independently when the model gets the shape
// wrong.
type decisionPayload struct {
	NewMemories     json.RawMessage `json:"new_memories"`
	MemoryTags      json.RawMessage `json:"memory_tags"`
	RecallMemoryIDs json.RawMessage `json:"recall_memory_ids"`
	SearchKeywords  json.RawMessage `json:"search_keywords"`
}

// ParseDecision extracts a JSON decision object from a raw model response.
//
// The model is not trusted to emit clean JSON: the object may be wrapped in
// prose, markdown fences, or reasoning artifacts. The payload is taken as the
// substring between the first '{' and the last '}'. Absence of either brace,
// or a JSON parse failure of that slice, is a hard failure. Within a parsed
// object each field degrades independently: a missing or wrongly-typed field
// becomes an empty container instead of failing the parse.
//
// Known fragility: if the model emits two separate top-level JSON objects the
// slice spans both plus everything between them and the parse fails.
func ParseDecision(raw string) Result {
	trimmed := strings.TrimSpace(raw)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return failedResult()
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return failedResult()
	}

	result := Result{
		NewMemoryTexts: stringList(payload.NewMemories),
		NewMemoryTags:  stringMatrix(payload.MemoryTags),
		RecallIDs:      stringList(payload.RecallMemoryIDs),
		SearchKeywords: stringList(payload.SearchKeywords),
		Succeeded:      true,
	}

	// Keep the candidate count within bounds and the tag sets index-aligned:
	// a memory is never stored with an undefined tag set.
	if len(result.NewMemoryTexts) > MaxNewMemories {
		result.NewMemoryTexts = result.NewMemoryTexts[:MaxNewMemories]
	}
	if len(result.NewMemoryTags) > len(result.NewMemoryTexts) {
		result.NewMemoryTags = result.NewMemoryTags[:len(result.NewMemoryTexts)]
	}
	for len(result.NewMemoryTags) < len(result.NewMemoryTexts) {
		result.NewMemoryTags = append(result.NewMemoryTags, []string{})
	}

	return result
}

// stringList decodes a JSON array of strings, degrading to empty on a missing
// field or any shape mismatch.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

// stringMatrix decodes a JSON array of string arrays, degrading to empty on a
// missing field or any shape mismatch. Inner nil entries become empty sets.
func stringMatrix(raw json.RawMessage) [][]string {
	if len(raw) == 0 {
		return [][]string{}
	}
	var matrix [][]string
	if err := json.Unmarshal(raw, &matrix); err != nil || matrix == nil {
		return [][]string{}
	}
	for i, inner := range matrix {
		if inner == nil {
			matrix[i] = []string{}
		}
	}
	return matrix
}
