package cta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

func showcaseConfig() *tenant.Config {
	enabled := true
	disabled := false
	cfg := testConfig()
	cfg.ConversationBranches["program_exploration"] = tenant.Branch{
		AvailableCTAs:  tenant.CTARefs{Primary: "volunteer_apply", Secondary: []string{"view_programs"}},
		ShowcaseItemID: "lovebox_overview",
	}
	cfg.ConversationBranches["disabled_showcase"] = tenant.Branch{
		ShowcaseItemID: "retired_item",
	}
	cfg.ConversationBranches["missing_showcase"] = tenant.Branch{
		ShowcaseItemID: "no_such_item",
	}
	cfg.ContentShowcase = []tenant.ShowcaseItem{
		{
			ID:         "lovebox_overview",
			Type:       "program",
			Name:       "Love Box",
			Tagline:    "Wrap around a family",
			Highlights: []string{"Monthly visits", "Team based"},
			AvailableCTAs: &tenant.CTARefs{
				Primary:   "lb_apply",
				Secondary: []string{"view_programs", "ghost"},
			},
			Enabled: &enabled,
		},
		{ID: "retired_item", Name: "Old", Enabled: &disabled},
	}
	return cfg
}

func TestShowcaseForBranch_ItemCTAsTakePrecedence(t *testing.T) {
	sc := ShowcaseForBranch("program_exploration", showcaseConfig())
	require.NotNil(t, sc)

	assert.Equal(t, "lovebox_overview", sc.ID)
	assert.Equal(t, "Love Box", sc.Name)
	require.NotNil(t, sc.CTAs.Primary)
	assert.Equal(t, "lb_apply", sc.CTAs.Primary["id"])
	assert.Equal(t, PositionPrimary, sc.CTAs.Primary[PositionKey])

	require.Len(t, sc.CTAs.Secondary, 1, "dangling ghost id omitted")
	assert.Equal(t, "view_programs", sc.CTAs.Secondary[0]["id"])
}

func TestShowcaseForBranch_FallsBackToBranchCTAs(t *testing.T) {
	cfg := showcaseConfig()
	cfg.ContentShowcase[0].AvailableCTAs = nil

	sc := ShowcaseForBranch("program_exploration", cfg)
	require.NotNil(t, sc)
	require.NotNil(t, sc.CTAs.Primary)
	assert.Equal(t, "volunteer_apply", sc.CTAs.Primary["id"])
}

func TestShowcaseForBranch_NilCases(t *testing.T) {
	cfg := showcaseConfig()

	assert.Nil(t, ShowcaseForBranch("volunteer_interest", cfg), "branch without showcase id")
	assert.Nil(t, ShowcaseForBranch("disabled_showcase", cfg), "disabled item")
	assert.Nil(t, ShowcaseForBranch("missing_showcase", cfg), "missing item")
	assert.Nil(t, ShowcaseForBranch("unknown_branch", cfg))
}

func TestShowcaseForBranch_StyleStripped(t *testing.T) {
	sc := ShowcaseForBranch("program_exploration", showcaseConfig())
	require.NotNil(t, sc)
	for _, card := range append([]Card{sc.CTAs.Primary}, sc.CTAs.Secondary...) {
		if card == nil {
			continue
		}
		_, hasStyle := card["style"]
		assert.False(t, hasStyle)
	}
}
