package prompt

import (
	"fmt"
	"strings"
)

// The formatting contract is data-driven: one style contract, one length
// contract, and one emoji contract are selected from the tenant's formatting
// preferences and concatenated. Keeping the blocks in tables lets the copy be
// revised without touching composer logic.

const (
	StyleProfessionalConcise = "professional_concise"
	StyleWarmConversational  = "warm_conversational"
	StyleStructuredDetailed  = "structured_detailed"

	DetailConcise       = "concise"
	DetailBalanced      = "balanced"
	DetailComprehensive = "comprehensive"

	EmojiNone     = "none"
	EmojiMinimal  = "minimal"
	EmojiModerate = "moderate"
)

var styleContracts = map[string]string{
	StyleProfessionalConcise: `RESPONSE STYLE CONTRACT (professional_concise):
Write in a professional, direct register. No filler, no exclamation points, no chattiness.
MANDATORY SUBSTITUTIONS you must apply before answering:
- "we're" → "we are", "you're" → "you are", "it's" → "it is"
- "great" → "comprehensive", "awesome"/"amazing" → "effective"
- "Feel free to" → "You may"
CORRECT example: "Our volunteer program requires a one year commitment. Applications are reviewed weekly."
WRONG example: "We're so excited you asked! Our volunteer program is great and we'd love to have you!"`,

	StyleWarmConversational: `RESPONSE STYLE CONTRACT (warm_conversational):
Write the way a friendly staff member would talk: approachable, encouraging, first person plural.
Contractions are encouraged ("we're", "you'll"). Address the visitor directly.
CORRECT example: "We'd love to have you join us! Most volunteers start with our Love Box program."
WRONG example: "The organization maintains several volunteer verticals for community engagement."`,

	StyleStructuredDetailed: `RESPONSE STYLE CONTRACT (structured_detailed):
Organize the response with clear structure: a one-line summary, then details grouped
under short bold labels or bullet points. Prefer lists over paragraphs when enumerating.
CORRECT example: "**Programs:** We offer two programs.\n- **Love Box** - family support\n- **Dare to Dream** - youth mentoring"
WRONG example: a single long unbroken paragraph mixing all topics.`,
}

var lengthContracts = map[string]string{
	DetailConcise: `RESPONSE LENGTH CONTRACT (concise):
Answer in 2-3 sentences. One idea per sentence. Stop as soon as the question is answered.
Pre-generation checklist: Is every sentence necessary? Did you avoid repeating the question?`,

	DetailBalanced: `RESPONSE LENGTH CONTRACT (balanced):
Answer in 4-6 sentences. Cover the direct answer plus the single most useful piece of
supporting detail. Do not enumerate everything you know.
Pre-generation checklist: Does the first sentence answer the question? Is there at most one tangent?`,

	DetailComprehensive: `RESPONSE LENGTH CONTRACT (comprehensive):
Provide a thorough answer of at least 8 sentences, organized under short headings.
Cover the direct answer, relevant background, and concrete next steps.
Pre-generation checklist: Are headings present? Does each section carry distinct information?`,
}

// emojiContract renders the emoji rule for the given usage level.
func emojiContract(usage string, maxPerResponse int) string {
	switch usage {
	case EmojiNone:
		return "EMOJI CONTRACT: Do not use emojis under any circumstances."
	case EmojiModerate:
		if maxPerResponse <= 0 {
			maxPerResponse = 3
		}
		return fmt.Sprintf("EMOJI CONTRACT: Use at most %d emojis, only where they add warmth. Never use emojis in factual statements about requirements or safety.", maxPerResponse)
	default:
		// minimal is the default posture.
		return "EMOJI CONTRACT: Use at most one emoji in the entire response, or none."
	}
}

// formattingContract assembles the final prompt section from the tenant's
// formatting preferences. It must remain the last section of the prompt:
// models weight trailing instructions most heavily, and style compliance
// depends on that.
func formattingContract(f FormattingPreferences) string {
	style, ok := styleContracts[f.ResponseStyle]
	if !ok {
		style = styleContracts[StyleWarmConversational]
	}
	length, ok := lengthContracts[f.DetailLevel]
	if !ok {
		length = lengthContracts[DetailBalanced]
	}

	var b strings.Builder
	b.WriteString("RESPONSE FORMATTING REQUIREMENTS (apply these to the answer you are about to write):\n\n")
	b.WriteString(style)
	b.WriteString("\n\n")
	b.WriteString(length)
	b.WriteString("\n\n")
	b.WriteString(emojiContract(f.EmojiUsage, f.MaxEmojisPerResponse))
	return b.String()
}
