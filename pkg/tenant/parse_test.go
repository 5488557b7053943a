package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullDocument(t *testing.T) {
	doc := `{
		"tenant_id": "tfi",
		"organization_name": "The Example Org",
		"role_instructions": "You help visitors of the org website.",
		"formatting_preferences": {
			"response_style": "warm_conversational",
			"detail_level": "balanced",
			"emoji_usage": "minimal",
			"max_emojis_per_response": 1
		},
		"custom_constraints": ["Never discuss pricing."],
		"fallback_message": "Please reach out to our team directly.",
		"conversation_branches": {
			"volunteer_interest": {
				"available_ctas": {"primary": "volunteer_apply", "secondary": ["view_programs"]},
				"detection_keywords": ["volunteer", "help out"]
			},
			"navigation_hub": {
				"available_ctas": {"secondary": ["view_programs", "contact_us"]},
				"showcase_item_id": "lovebox_overview"
			}
		},
		"cta_definitions": {
			"volunteer_apply": {"label": "Apply to Volunteer", "action": "start_form", "form_id": "volunteer_apply", "style": "primary-green"},
			"view_programs": {"label": "View Programs", "action": "navigate", "route": "/programs"}
		},
		"cta_settings": {"fallback_branch": "navigation_hub", "max_display": 2},
		"content_showcase": [
			{"id": "lovebox_overview", "type": "program", "name": "Love Box", "highlights": ["Monthly visits"], "enabled": true}
		],
		"conversational_forms": {
			"volunteer_apply": {
				"title": "Volunteer Application",
				"enabled": true,
				"trigger_phrases": ["want to volunteer"],
				"fields": [{"id": "email", "label": "Email Address", "type": "email", "required": true}],
				"fulfillment": {"email_to": "team@example.org", "sms_to": "+15551234567"}
			}
		},
		"send_confirmation_email": false,
		"aws": {"knowledge_base_id": "KB123", "model_id": "anthropic.claude-3-haiku"},
		"streaming": {"max_tokens": 1000, "temperature": 0.7}
	}`

	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "tfi", cfg.TenantID)
	assert.Equal(t, "You help visitors of the org website.", cfg.Instructions())
	assert.Equal(t, "warm_conversational", cfg.FormattingPreferences.ResponseStyle)
	assert.Equal(t, 2, cfg.MaxDisplay())
	assert.Equal(t, "navigation_hub", cfg.CTASettings.FallbackBranch)
	assert.Equal(t, "KB123", cfg.KnowledgeBaseID())
	assert.Equal(t, "anthropic.claude-3-haiku", cfg.EffectiveModelID("fallback-model"))
	assert.False(t, cfg.ConfirmationEmailEnabled())
	assert.Equal(t, 1000, cfg.Streaming.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Streaming.Temperature, 1e-9)

	branch := cfg.ConversationBranches["volunteer_interest"]
	assert.Equal(t, "volunteer_apply", branch.AvailableCTAs.Primary)
	assert.Equal(t, []string{"view_programs"}, branch.AvailableCTAs.Secondary)
	assert.Equal(t, []string{"volunteer", "help out"}, branch.DetectionKeywords)

	// Style survives in the definition; stripping happens at build time.
	assert.Equal(t, "primary-green", cfg.CTADefinitions["volunteer_apply"]["style"])

	form := cfg.ConversationalForms["volunteer_apply"]
	assert.True(t, form.IsEnabled())
	assert.Equal(t, "team@example.org", form.Fulfillment.EmailTo)
	assert.Equal(t, "Email Address", form.Fields[0].Label)
}

func TestParse_LegacyAliases(t *testing.T) {
	cfg, err := Parse([]byte(`{"tone_prompt": "Be folksy."}`))
	require.NoError(t, err)
	assert.Equal(t, "Be folksy.", cfg.Instructions())

	cfg, err = Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultInstructions, cfg.Instructions())
	assert.Equal(t, 3, cfg.MaxDisplay())
	assert.True(t, cfg.ConfirmationEmailEnabled())
}

func TestParse_ActionChipsMapSchema(t *testing.T) {
	doc := `{
		"action_chips": {
			"chip_b": {"label": "Programs", "value": "Tell me about your programs", "target_branch": "program_exploration"},
			"chip_a": {"id": "chip_a", "label": "Volunteer", "value": "I want to volunteer"}
		}
	}`

	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cfg.ActionChips, 2)

	// Map-keyed chips come out ordered by id, with the key as fallback id.
	assert.Equal(t, "chip_a", cfg.ActionChips[0].ID)
	assert.Equal(t, "chip_b", cfg.ActionChips[1].ID)
	assert.Equal(t, "program_exploration", cfg.ActionChips[1].TargetBranch)
}

func TestParse_ActionChipsLegacySequence(t *testing.T) {
	doc := `{
		"action_chips": [
			{"id": "first", "label": "One", "value": "one"},
			{"id": "second", "label": "Two", "value": "two"}
		]
	}`

	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cfg.ActionChips, 2)
	assert.Equal(t, "first", cfg.ActionChips[0].ID)
	assert.Equal(t, "second", cfg.ActionChips[1].ID)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)
}
