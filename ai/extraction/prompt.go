package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/lorekeeper/lorekeeper/store"
)

// Request carries everything the extraction prompt needs about the turn being
// processed. RecentTurns is expected oldest-first and already windowed by the
// caller.
type Request struct {
	AdventureName        string
	AdventureDescription string
	UserMessage          string
	RecentTurns          []*store.ConversationTurn
	Memories             []*store.MemoryRecord
}

// BuildPrompt renders the memory-manager instruction for one turn. The model
// is asked four questions and must answer with a single JSON object; the
// parser tolerates surrounding prose but not a missing object.
func BuildPrompt(req *Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are the memory manager for a fantasy role-play adventure called %q.\n", req.AdventureName)
	sb.WriteString("Your job is to decide what to remember and what to recall. You do not narrate.\n\n")

	sb.WriteString("## ADVENTURE SETTING:\n")
	if req.AdventureDescription != "" {
		sb.WriteString(req.AdventureDescription)
	} else {
		sb.WriteString("No setting description provided.")
	}
	sb.WriteString("\n\n")

	sb.WriteString("## RECENT CONVERSATION:\n")
	if len(req.RecentTurns) == 0 {
		sb.WriteString("No previous conversation.")
	} else {
		lines := make([]string, 0, len(req.RecentTurns))
		for _, turn := range req.RecentTurns {
			lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(turn.Role)), turn.Content))
		}
		sb.WriteString(strings.Join(lines, "\n\n"))
	}
	sb.WriteString("\n\n")

	sb.WriteString("## PLAYER'S LATEST MESSAGE:\n")
	sb.WriteString(req.UserMessage)
	sb.WriteString("\n\n")

	sb.WriteString("## CURRENT STORED MEMORIES:\n")
	if len(req.Memories) == 0 {
		sb.WriteString("No memories stored yet.")
	} else {
		entries := make([]string, 0, len(req.Memories))
		for _, memory := range req.Memories {
			entries = append(entries, renderMemory(memory))
		}
		sb.WriteString(strings.Join(entries, "\n\n"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(`## TASK:
Analyze the conversation and answer FOUR questions:

1. NEW MEMORIES: Does the latest exchange establish any new lasting facts worth remembering (names, quests, items, relationships, decisions, deaths)? Pick at most 2, each a single self-contained sentence. Do not repeat facts that are already stored.
2. MEMORY TAGS: For each new memory, provide 3-5 short lowercase topic tags.
3. RECALL: Which stored memories are directly relevant to the player's latest message? List their exact IDs as shown above.
4. SEARCH KEYWORDS: Provide 3-7 keywords describing what the player's message is about, for matching against memory tags.

Respond with VALID JSON only, in exactly this shape:
{
  "new_memories": ["fact one", "fact two"],
  "memory_tags": [["tag1", "tag2", "tag3"], ["tag1", "tag2", "tag3"]],
  "recall_memory_ids": ["id1"],
  "search_keywords": ["keyword1", "keyword2", "keyword3"]
}

Use empty arrays for questions with no answer. Do not add any text outside the JSON object.`)

	return sb.String()
}

func renderMemory(memory *store.MemoryRecord) string {
	created := time.Unix(memory.CreatedTs, 0).UTC().Format(time.RFC3339)
	return fmt.Sprintf("ID: %s\nContent: %s\nCreated: %s\nTags: %s",
		memory.ID, memory.Text, created, strings.Join(memory.Tags, ", "))
}
