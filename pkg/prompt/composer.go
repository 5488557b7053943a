// Package prompt assembles the final model prompt from tenant configuration,
// retrieved knowledge, and conversation history.
package prompt

import (
	"strings"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// FormattingPreferences selects the formatting contract blocks.
type FormattingPreferences = tenant.Formatting

// Message is one turn of conversation history as supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Build concatenates the prompt sections in a fixed order. Sections with empty
// input are omitted. The formatting contract is always last; see
// formattingContract for why the position matters.
func Build(userInput, kbContext string, cfg *tenant.Config, history []Message) string {
	var sections []string

	sections = append(sections, cfg.Instructions())

	transcript := renderHistory(history)
	hasHistory := transcript != ""
	if hasHistory {
		sections = append(sections, "PREVIOUS CONVERSATION:\n"+transcript+"\n\n"+historyReminder)

		// Locked blocks apply only when there is history to interpret.
		sections = append(sections,
			contextInterpretationBlock,
			capabilityBoundariesBlock,
			loopPreventionBlock,
		)
	}

	if kbContext != "" {
		sections = append(sections,
			antiHallucinationBlock,
			urlPreservationBlock,
			essentialInstructionsBlock,
			"KNOWLEDGE BASE INFORMATION:\n"+kbContext,
		)
	} else if cfg.FallbackMessage != "" {
		sections = append(sections, cfg.FallbackMessage)
	}

	if len(cfg.CustomConstraints) > 0 {
		sections = append(sections, "CUSTOM INSTRUCTIONS:\n"+strings.Join(cfg.CustomConstraints, "\n"))
	}

	sections = append(sections, "CURRENT USER QUESTION: "+userInput)

	if kbContext != "" {
		sections = append(sections, noInlineCTADirective)
	}

	sections = append(sections, formattingContract(cfg.FormattingPreferences))

	return strings.Join(sections, "\n\n")
}

// renderHistory formats history as a labeled transcript. Blank turns are
// dropped; roles are title-cased for readability.
func renderHistory(history []Message) string {
	var lines []string
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := "User"
		if strings.EqualFold(m.Role, "assistant") {
			role = "Assistant"
		}
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n")
}
