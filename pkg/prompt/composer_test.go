package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

func baseConfig() *tenant.Config {
	return &tenant.Config{
		RoleInstructions: "You are the assistant for Example Org.",
		FallbackMessage:  "Please contact our team at team@example.org.",
		FormattingPreferences: tenant.Formatting{
			ResponseStyle: StyleProfessionalConcise,
			DetailLevel:   DetailConcise,
			EmojiUsage:    EmojiNone,
		},
	}
}

func TestBuild_SectionOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.CustomConstraints = []string{"Never discuss politics."}
	history := []Message{
		{Role: "user", Content: "Hi, I'm Dana"},
		{Role: "assistant", Content: "Hello Dana!"},
	}

	p := Build("What programs do you offer?", "**Context 1:**\nLove Box pairs families.", cfg, history)

	markers := []string{
		"You are the assistant for Example Org.",
		"PREVIOUS CONVERSATION:",
		"User: Hi, I'm Dana",
		"CONTEXT INTERPRETATION RULES",
		"CAPABILITY BOUNDARIES",
		"LOOP PREVENTION RULES",
		"ACCURACY RULES",
		"URL AND CONTACT PRESERVATION RULES",
		"ESSENTIAL INSTRUCTIONS",
		"KNOWLEDGE BASE INFORMATION:",
		"Love Box pairs families.",
		"CUSTOM INSTRUCTIONS:",
		"Never discuss politics.",
		"CURRENT USER QUESTION: What programs do you offer?",
		"DO NOT include calls to action",
		"RESPONSE FORMATTING REQUIREMENTS",
	}

	lastIdx := -1
	for _, marker := range markers {
		idx := strings.Index(p, marker)
		require.GreaterOrEqual(t, idx, 0, "missing section: %s", marker)
		assert.Greater(t, idx, lastIdx, "section out of order: %s", marker)
		lastIdx = idx
	}
}

func TestBuild_FormattingContractIsLast(t *testing.T) {
	p := Build("q", "ctx", baseConfig(), nil)
	idx := strings.Index(p, "EMOJI CONTRACT")
	require.GreaterOrEqual(t, idx, 0)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), emojiContract(EmojiNone, 0)),
		"emoji contract ends the prompt")
}

func TestBuild_NoHistorySkipsLockedBlocks(t *testing.T) {
	p := Build("q", "ctx", baseConfig(), nil)

	assert.NotContains(t, p, "PREVIOUS CONVERSATION:")
	assert.NotContains(t, p, "CONTEXT INTERPRETATION RULES")
	assert.NotContains(t, p, "CAPABILITY BOUNDARIES")
	assert.NotContains(t, p, "LOOP PREVENTION RULES")
}

func TestBuild_BlankHistoryTurnsDropped(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "   "},
		{Role: "assistant", Content: ""},
	}
	p := Build("q", "ctx", baseConfig(), history)
	assert.NotContains(t, p, "PREVIOUS CONVERSATION:", "all-blank history counts as no history")
}

func TestBuild_EmptyContextUsesFallback(t *testing.T) {
	cfg := baseConfig()
	p := Build("q", "", cfg, nil)

	assert.Contains(t, p, cfg.FallbackMessage)
	assert.NotContains(t, p, "KNOWLEDGE BASE INFORMATION:")
	assert.NotContains(t, p, "ACCURACY RULES")
	assert.NotContains(t, p, "DO NOT include calls to action", "directive only accompanies knowledge")
}

func TestBuild_LegacyToneAndDefaultInstructions(t *testing.T) {
	cfg := &tenant.Config{TonePrompt: "Be folksy."}
	assert.True(t, strings.HasPrefix(Build("q", "", cfg, nil), "Be folksy."))

	cfg = &tenant.Config{}
	assert.True(t, strings.HasPrefix(Build("q", "", cfg, nil), tenant.DefaultInstructions))
}

func TestBuild_ContractSelection(t *testing.T) {
	cfg := baseConfig()
	cfg.FormattingPreferences = tenant.Formatting{
		ResponseStyle:        StyleStructuredDetailed,
		DetailLevel:          DetailComprehensive,
		EmojiUsage:           EmojiModerate,
		MaxEmojisPerResponse: 2,
	}

	p := Build("q", "", cfg, nil)
	assert.Contains(t, p, "structured_detailed")
	assert.Contains(t, p, "comprehensive")
	assert.Contains(t, p, "at most 2 emojis")
}

func TestBuild_UnknownPreferencesFallBack(t *testing.T) {
	cfg := baseConfig()
	cfg.FormattingPreferences = tenant.Formatting{ResponseStyle: "bogus", DetailLevel: "bogus", EmojiUsage: "bogus"}

	p := Build("q", "", cfg, nil)
	assert.Contains(t, p, "warm_conversational")
	assert.Contains(t, p, "4-6 sentences")
	assert.Contains(t, p, "at most one emoji")
}

func TestBuild_SubstitutionListPresent(t *testing.T) {
	p := Build("q", "", baseConfig(), nil)
	assert.Contains(t, p, `"we're" → "we are"`)
	assert.Contains(t, p, `"great" → "comprehensive"`)
}
