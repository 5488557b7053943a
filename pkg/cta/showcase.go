package cta

import (
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Showcase is a branch-attached rich content card with its CTAs resolved.
type Showcase struct {
	ID          string   `json:"id"`
	Type        string   `json:"type,omitempty"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`

	CTAs ResolvedCTAs `json:"ctas"`
}

// ResolvedCTAs carries the showcase's resolved primary and secondary cards.
type ResolvedCTAs struct {
	Primary   Card   `json:"primary,omitempty"`
	Secondary []Card `json:"secondary"`
}

// ShowcaseForBranch resolves the showcase item attached to a branch. Returns
// nil when the branch carries no item, the item is missing, or it is disabled.
// The item's own CTAs take precedence over the branch's; when the item has
// none, the branch's CTAs act as its CTAs. Dangling ids are omitted and style
// is stripped, same as the button path.
func ShowcaseForBranch(branchName string, cfg *tenant.Config) *Showcase {
	branch, ok := cfg.ConversationBranches[branchName]
	if !ok || branch.ShowcaseItemID == "" {
		return nil
	}

	item := findShowcaseItem(cfg, branch.ShowcaseItemID)
	if item == nil || !item.IsEnabled() {
		return nil
	}

	refs := branch.AvailableCTAs
	if item.AvailableCTAs != nil {
		refs = *item.AvailableCTAs
	}

	resolved := ResolvedCTAs{Secondary: []Card{}}
	if card := resolveCard(refs.Primary, PositionPrimary, cfg); card != nil {
		resolved.Primary = card
	}
	for _, id := range refs.Secondary {
		if card := resolveCard(id, PositionSecondary, cfg); card != nil {
			resolved.Secondary = append(resolved.Secondary, card)
		}
	}

	return &Showcase{
		ID:          item.ID,
		Type:        item.Type,
		Name:        item.Name,
		Tagline:     item.Tagline,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		Highlights:  item.Highlights,
		CTAs:        resolved,
	}
}

func findShowcaseItem(cfg *tenant.Config, id string) *tenant.ShowcaseItem {
	for i := range cfg.ContentShowcase {
		if cfg.ContentShowcase[i].ID == id {
			return &cfg.ContentShowcase[i]
		}
	}
	return nil
}

// resolveCard clones a definition without the completed-program filtering the
// button path applies; showcase cards are informational.
func resolveCard(id, position string, cfg *tenant.Config) Card {
	if id == "" {
		return nil
	}
	def, ok := cfg.CTADefinitions[id]
	if !ok {
		return nil
	}
	card := clone(def)
	card["id"] = id
	card[PositionKey] = position
	delete(card, "style")
	return card
}
