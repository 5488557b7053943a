// Package cta materializes call-to-action cards and showcase cards for a
// resolved conversation branch.
package cta

import (
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Card is an outbound CTA card. Cards are schemaless clones of the tenant's
// cta_definitions entries with id and _position attached. The legacy style
// field never leaves the gateway.
type Card map[string]interface{}

const (
	// PositionKey marks the single presentation hint a card carries.
	PositionKey = "_position"

	PositionPrimary   = "primary"
	PositionSecondary = "secondary"
)

// ProgramForFormID maps well-known form ids to their program tag. Returns ""
// for forms without a fixed program.
func ProgramForFormID(formID string) string {
	switch formID {
	case "lb_apply":
		return "lovebox"
	case "dd_apply":
		return "daretodream"
	}
	return ""
}

// Build materializes the CTA cards for a branch on the explicit routing path:
// primary first, secondary in config order, completed programs suppressed,
// dangling definition ids dropped, capped at the tenant's max_display.
func Build(branchName string, cfg *tenant.Config, completedForms []string) []Card {
	return build(branchName, cfg, completedForms, false)
}

// BuildLegacy is Build for the legacy keyword fallback path. It additionally
// binds generic volunteer forms to a program from the branch name, a behavior
// kept for pre-v1.4 configs and never applied on the explicit path.
func BuildLegacy(branchName string, cfg *tenant.Config, completedForms []string) []Card {
	return build(branchName, cfg, completedForms, true)
}

func build(branchName string, cfg *tenant.Config, completedForms []string, branchPrograms bool) []Card {
	branch, ok := cfg.ConversationBranches[branchName]
	if !ok {
		return nil
	}

	var cards []Card

	if card := materialize(branch.AvailableCTAs.Primary, PositionPrimary, branchName, cfg, completedForms, branchPrograms); card != nil {
		cards = append(cards, card)
	}
	for _, id := range branch.AvailableCTAs.Secondary {
		if card := materialize(id, PositionSecondary, branchName, cfg, completedForms, branchPrograms); card != nil {
			cards = append(cards, card)
		}
	}

	if max := cfg.MaxDisplay(); len(cards) > max {
		cards = cards[:max]
	}
	return cards
}

// materialize resolves one CTA id into a card, or nil when the id dangles or
// its program was already completed by this visitor.
func materialize(id, position, branchName string, cfg *tenant.Config, completedForms []string, branchPrograms bool) Card {
	if id == "" {
		return nil
	}
	def, ok := cfg.CTADefinitions[id]
	if !ok {
		return nil
	}

	program := ""
	if isFormCTA(def) {
		program = deriveProgram(def, branchName, branchPrograms)
		if program != "" && contains(completedForms, program) {
			return nil
		}
	}

	card := clone(def)
	card["id"] = id
	card[PositionKey] = position
	delete(card, "style")
	if program != "" {
		card["program"] = program
	}
	return card
}

func isFormCTA(def map[string]interface{}) bool {
	if t, _ := def["type"].(string); t == "form_cta" {
		return true
	}
	action, _ := def["action"].(string)
	return action == "start_form" || action == "form_trigger"
}

// deriveProgram resolves a form CTA's program from explicit fields, the
// form-id mapping, and (legacy path only) the branch context.
func deriveProgram(def map[string]interface{}, branchName string, branchPrograms bool) string {
	if p, _ := def["program"].(string); p != "" {
		return p
	}

	formID, _ := def["form_id"].(string)
	if formID == "" {
		formID, _ = def["formId"].(string)
	}

	if p := ProgramForFormID(formID); p != "" {
		return p
	}

	if branchPrograms && (formID == "volunteer_apply" || formID == "volunteer_general") {
		switch branchName {
		case "lovebox_discussion":
			return "lovebox"
		case "daretodream_discussion":
			return "daretodream"
		}
	}
	return ""
}

func clone(def map[string]interface{}) Card {
	card := make(Card, len(def)+2)
	for k, v := range def {
		card[k] = v
	}
	return card
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
