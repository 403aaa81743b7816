// Package extraction asks a generative text model which narrative facts from
// the current conversation deserve saving as long-term memories, and which
// stored memories should be recalled into the next prompt.
//
// Extraction is best-effort enrichment: every failure path (network, HTTP
// status, malformed model output) collapses to a failed Result and the turn
// proceeds without memory augmentation. Nothing in this package can fail a
// user-visible turn.
package extraction

// MaxNewMemories bounds how many memory candidates one extraction may
// produce; extra candidates are dropped during parsing.
const MaxNewMemories = 2

// Result is the structured decision extracted from one model response.
// When Succeeded is false all other fields are empty.
type Result struct {
	// NewMemoryTexts holds 0..MaxNewMemories candidate memory strings.
	NewMemoryTexts []string

	// NewMemoryTags is index-aligned with NewMemoryTexts: one tag set per
	// candidate. Missing entries default to empty sets, never nil-of-unknown.
	NewMemoryTags [][]string

	// RecallIDs lists memory ids the model explicitly asked to recall. They
	// may reference nonexistent ids and must be filtered against the store.
	RecallIDs []string

	// SearchKeywords drives tag-based recall.
	SearchKeywords []string

	// Succeeded is true only if a structurally valid JSON object was obtained.
	Succeeded bool
}

// failedResult returns the empty sentinel used for every failure path.
func failedResult() Result {
	return Result{
		NewMemoryTexts: []string{},
		NewMemoryTags:  [][]string{},
		RecallIDs:      []string{},
		SearchKeywords: []string{},
	}
}
