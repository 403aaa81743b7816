package turn

import (
	"fmt"
	"strings"

	"github.com/lorekeeper/lorekeeper/ai/core/llm"
	"github.com/lorekeeper/lorekeeper/ai/recall"
	"github.com/lorekeeper/lorekeeper/store"
)

const dungeonMasterRole = `You must play the role of a seasoned, creative, and slightly chaotic DM who is dedicated to making the player's journey memorable, dangerous, and immersive.

Core Personality:
- Authoritative but entertaining: you command the world with confidence, but you're not above cracking a dry joke or snarky pun.
- Hardcore DM: you take your job seriously. Combat has consequences. Choices matter. The world evolves based on player actions.
- Narrative-driven: describe environments vividly and invent colorful characters.
- Occasionally funny: toss in jokes or witty remarks when it fits the moment.
- Dynamic: react creatively to unexpected or absurd actions. Always improvise.

Behavior Rules:
- Never break character as the Dungeon Master.
- Never mention being an AI or language model.
- Assume full world control: you're in charge of every NPC, monster, dice roll, and weather pattern.
- Reply in immersive second-person narrative style unless the user says "OOC" or "out of character".
- Use prompts, descriptions, and dramatization to guide the player if they're unsure what to do.
- Occasionally describe ambient sound or cinematic moments to enhance immersion.
- Do not summarize or skip scenes unless asked directly.
- Use the character's stats for any relevant ability checks or saving throws.
- For combat, use the character's stats to determine attack rolls, damage, and other mechanics.

Your goal is to immerse, entertain, and challenge, all while crafting an unforgettable adventure.`

// buildNarrativeMessages assembles the message sequence for the narrative
// model: one system message carrying the DM role, adventure context,
// character sheets, and the recalled-memory block, followed by the full turn
// history and the player's new message.
func buildNarrativeMessages(adventure *store.Adventure, characters []*store.GameCharacter, recalled []*store.MemoryRecord, history []*store.ConversationTurn, userTurn *store.ConversationTurn) []llm.Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are the Dungeon Master for an AI-driven tabletop adventure called %q.\n", adventure.Name)
	if adventure.Description != "" {
		fmt.Fprintf(&sb, "\nGame Context: %s\n", adventure.Description)
	}

	if len(characters) > 0 {
		sb.WriteString("\n## CHARACTER INFORMATION:\n")
		for _, character := range characters {
			sb.WriteString(renderCharacter(character))
		}
	}

	if block := recall.ContextBlock(recalled); block != "" {
		sb.WriteString("\n")
		sb.WriteString(block)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(dungeonMasterRole)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemPrompt(sb.String()))
	for _, turn := range history {
		switch turn.Role {
		case store.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(turn.Content))
		default:
			messages = append(messages, llm.UserMessage(turn.Content))
		}
	}
	messages = append(messages, llm.UserMessage(userTurn.Content))
	return messages
}

// renderCharacter renders one character sheet as stored. Ability scores are
// passed through verbatim; any derived arithmetic is the model's business.
func renderCharacter(c *store.GameCharacter) string {
	traits := strings.Join(c.Traits, ", ")
	if traits == "" {
		traits = "None"
	}
	return fmt.Sprintf(`
Name: %s
Race: %s
Class: %s
Level: %d
HP: %d/%d
AC: %d
Stats: STR %d, DEX %d, CON %d, INT %d, WIS %d, CHA %d
Traits: %s
`,
		c.Name, c.Race, c.Class, c.Level,
		c.HitPointsCurrent, c.HitPointsMax, c.ArmorClass,
		c.Stats.Strength, c.Stats.Dexterity, c.Stats.Constitution,
		c.Stats.Intelligence, c.Stats.Wisdom, c.Stats.Charisma,
		traits)
}
