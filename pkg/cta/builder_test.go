package cta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

func testConfig() *tenant.Config {
	return &tenant.Config{
		ConversationBranches: map[string]tenant.Branch{
			"volunteer_interest": {
				AvailableCTAs: tenant.CTARefs{
					Primary:   "volunteer_apply",
					Secondary: []string{"view_programs", "contact_us"},
				},
			},
			"lovebox_discussion": {
				AvailableCTAs: tenant.CTARefs{Primary: "lb_apply"},
			},
			"daretodream_discussion": {
				AvailableCTAs: tenant.CTARefs{Primary: "generic_volunteer"},
			},
			"dangling_branch": {
				AvailableCTAs: tenant.CTARefs{
					Primary:   "ghost",
					Secondary: []string{"view_programs", "phantom"},
				},
			},
		},
		CTADefinitions: map[string]map[string]interface{}{
			"volunteer_apply": {
				"label": "Apply to Volunteer", "action": "start_form",
				"form_id": "volunteer_apply", "style": "green",
			},
			"lb_apply": {
				"label": "Apply for Love Box", "action": "start_form", "form_id": "lb_apply",
			},
			"dd_apply": {
				"label": "Apply for Dare to Dream", "type": "form_cta", "form_id": "dd_apply",
			},
			"generic_volunteer": {
				"label": "Volunteer With Us", "action": "start_form", "form_id": "volunteer_general",
			},
			"view_programs": {
				"label": "View Programs", "action": "navigate", "route": "/programs", "style": "outline",
			},
			"contact_us": {
				"label": "Contact Us", "action": "external_link", "url": "https://example.org/contact",
			},
		},
	}
}

func TestBuild_PrimaryFirstWithPositions(t *testing.T) {
	cards := Build("volunteer_interest", testConfig(), nil)
	require.Len(t, cards, 3)

	assert.Equal(t, "volunteer_apply", cards[0]["id"])
	assert.Equal(t, PositionPrimary, cards[0][PositionKey])
	assert.Equal(t, "view_programs", cards[1]["id"])
	assert.Equal(t, PositionSecondary, cards[1][PositionKey])
	assert.Equal(t, "contact_us", cards[2]["id"])
	assert.Equal(t, PositionSecondary, cards[2][PositionKey])
}

func TestBuild_StyleStripped(t *testing.T) {
	cfg := testConfig()
	cards := Build("volunteer_interest", cfg, nil)
	for _, card := range cards {
		_, hasStyle := card["style"]
		assert.False(t, hasStyle, "card %v leaked style", card["id"])
	}
	// The source definition keeps its style.
	assert.Equal(t, "green", cfg.CTADefinitions["volunteer_apply"]["style"])
}

func TestBuild_MissingBranch(t *testing.T) {
	assert.Nil(t, Build("nope", testConfig(), nil))
}

func TestBuild_DanglingIDsDropped(t *testing.T) {
	cards := Build("dangling_branch", testConfig(), nil)
	require.Len(t, cards, 1)
	assert.Equal(t, "view_programs", cards[0]["id"])
	assert.Equal(t, PositionSecondary, cards[0][PositionKey])
}

func TestBuild_CompletedProgramSuppressed(t *testing.T) {
	cards := Build("lovebox_discussion", testConfig(), []string{"lovebox"})
	assert.Empty(t, cards)

	cards = Build("lovebox_discussion", testConfig(), []string{"daretodream"})
	require.Len(t, cards, 1)
	assert.Equal(t, "lovebox", cards[0]["program"], "program derived from form id")
}

func TestBuild_MaxDisplayCap(t *testing.T) {
	cfg := testConfig()
	cfg.CTASettings.MaxDisplay = 2

	cards := Build("volunteer_interest", cfg, nil)
	require.Len(t, cards, 2)
	assert.Equal(t, PositionPrimary, cards[0][PositionKey], "primary survives the cap")
}

func TestBuild_ExplicitPathSkipsBranchProgramBinding(t *testing.T) {
	cards := Build("daretodream_discussion", testConfig(), nil)
	require.Len(t, cards, 1)
	_, hasProgram := cards[0]["program"]
	assert.False(t, hasProgram, "generic volunteer form gets no program on the explicit path")
}

func TestBuildLegacy_BranchProgramBinding(t *testing.T) {
	cards := BuildLegacy("daretodream_discussion", testConfig(), nil)
	require.Len(t, cards, 1)
	assert.Equal(t, "daretodream", cards[0]["program"])

	// Once bound, the completed filter applies.
	assert.Empty(t, BuildLegacy("daretodream_discussion", testConfig(), []string{"daretodream"}))
}

func TestProgramForFormID(t *testing.T) {
	assert.Equal(t, "lovebox", ProgramForFormID("lb_apply"))
	assert.Equal(t, "daretodream", ProgramForFormID("dd_apply"))
	assert.Empty(t, ProgramForFormID("volunteer_apply"))
	assert.Empty(t, ProgramForFormID("newsletter"))
}
