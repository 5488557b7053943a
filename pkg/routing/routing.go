// Package routing selects a conversation branch from explicit per-request
// hints using a strict 3-tier hierarchy.
package routing

import (
	"log/slog"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Metadata carries the explicit routing hints a widget attaches to a request.
type Metadata struct {
	ActionChipTriggered bool   `json:"action_chip_triggered"`
	ActionChipID        string `json:"action_chip_id"`
	CTATriggered        bool   `json:"cta_triggered"`
	CTAID               string `json:"cta_id"`
	TargetBranch        string `json:"target_branch"`
}

// IsExplicit reports whether the request carried any explicit routing hint.
// The legacy keyword path is only consulted when it did not.
func (m Metadata) IsExplicit() bool {
	return m.ActionChipTriggered || m.CTATriggered
}

// Method identifies which tier produced the branch.
type Method string

const (
	MethodActionChip Method = "action_chip"
	MethodCTA        Method = "cta"
	MethodFallback   Method = "fallback"
)

// Resolve walks the tiers in order: action chip, CTA click, fallback branch.
// The first tier whose target names an existing branch wins. An invalid
// target logs a warning and falls through; exhaustion returns ok=false and
// the caller shows no CTAs.
func Resolve(meta Metadata, cfg *tenant.Config) (branch string, method Method, ok bool) {
	if meta.ActionChipTriggered {
		if valid(meta.TargetBranch, cfg) {
			return meta.TargetBranch, MethodActionChip, true
		}
		if meta.TargetBranch != "" {
			slog.Warn("Action chip targets unknown branch",
				"chip_id", meta.ActionChipID, "target_branch", meta.TargetBranch)
		}
	}

	if meta.CTATriggered {
		if valid(meta.TargetBranch, cfg) {
			return meta.TargetBranch, MethodCTA, true
		}
		if meta.TargetBranch != "" {
			slog.Warn("CTA targets unknown branch",
				"cta_id", meta.CTAID, "target_branch", meta.TargetBranch)
		}
	}

	fallback := cfg.CTASettings.FallbackBranch
	if valid(fallback, cfg) {
		return fallback, MethodFallback, true
	}
	if fallback != "" {
		slog.Warn("Fallback branch not defined", "fallback_branch", fallback)
	}

	return "", "", false
}

func valid(branch string, cfg *tenant.Config) bool {
	if branch == "" {
		return false
	}
	_, ok := cfg.ConversationBranches[branch]
	return ok
}
