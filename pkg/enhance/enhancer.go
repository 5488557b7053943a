// Package enhance decorates a finished assistant message with CTA cards,
// showcase cards, and form-flow metadata. It runs strictly after the model
// stream ends; nothing here touches the message text.
package enhance

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/chatrelay/chatrelay/pkg/cta"
	"github.com/chatrelay/chatrelay/pkg/routing"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Input is everything one enhancement pass consumes.
type Input struct {
	Message     string
	UserMessage string
	Config      *tenant.Config
	Session     tenant.SessionContext
	Routing     routing.Metadata
}

// Result is the enhancement frame payload. Message is always the input
// message, untouched.
type Result struct {
	Message      string                 `json:"message"`
	CTAButtons   []cta.Card             `json:"ctaButtons"`
	ShowcaseCard *cta.Showcase          `json:"showcaseCard,omitempty"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// Legacy keyword branches are scanned in a fixed priority order so that the
// broadest topics win over program-specific ones.
var legacyBranchOrder = []string{
	"program_exploration",
	"volunteer_interest",
	"requirements_discussion",
	"lovebox_discussion",
	"daretodream_discussion",
}

// engagementRe gates the legacy keyword path: the user message must express
// interest before keyword matches in the assistant text may attach CTAs.
var engagementRe = regexp.MustCompile(`(?i)\b(tell me|more|interested?|how|what|when|where|who|can i|sign(?: me)? up|apply|join|volunteer|help|yes|sure|sounds good|ready)\b`)

// programNames maps the program_interest tags a generic form collects to
// display names.
var programNames = map[string]string{
	"lovebox":     "Love Box",
	"daretodream": "Dare to Dream",
	"both":        "both programs",
	"unsure":      "Volunteer",
}

// Enhance applies the rule hierarchy and never fails: any internal panic
// degrades to an empty enhancement with the error recorded in metadata.
func Enhance(in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Enhancement failed", "error", r)
			result = Result{
				Message:    in.Message,
				CTAButtons: []cta.Card{},
				Metadata: map[string]interface{}{
					"enhanced": false,
					"error":    fmt.Sprint(r),
				},
			}
		}
	}()
	return enhance(in)
}

// enhance evaluates the rules in order; the first rule whose guard fires is
// authoritative and the rest are skipped.
func enhance(in Input) Result {
	cfg := in.Config

	// Rule 1: explicit routing.
	if branch, method, ok := routing.Resolve(in.Routing, cfg); ok {
		buttons := cta.Build(branch, cfg, in.Session.CompletedForms)
		showcase := cta.ShowcaseForBranch(branch, cfg)

		md := map[string]interface{}{
			"enhanced":       len(buttons) > 0 || showcase != nil,
			"routing_tier":   "explicit",
			"routing_method": string(method),
			"branch":         branch,
		}
		if showcase != nil {
			md["has_showcase"] = true
		}
		return Result{Message: in.Message, CTAButtons: emptyIfNil(buttons), ShowcaseCard: showcase, Metadata: md}
	}

	// Rule 2: suspended form handling. Only the first suspended form is
	// consulted; a different detected form means the visitor switched
	// programs mid-application and the widget must reconcile before any
	// CTAs make sense.
	if len(in.Session.SuspendedForms) > 0 {
		suspendedID := in.Session.SuspendedForms[0]
		detectedID, detected := detectForm(in.UserMessage, cfg)

		md := map[string]interface{}{"enhanced": false}
		if detected != nil && detectedID != suspendedID {
			suspendedForm := cfg.ConversationalForms[suspendedID]
			md["program_switch_detected"] = true
			md["suspended_form"] = map[string]interface{}{
				"form_id":      suspendedID,
				"program_name": programName(&suspendedForm, in.Session.ProgramInterest),
			}
			md["new_form_of_interest"] = map[string]interface{}{
				"form_id":      detectedID,
				"program_name": programName(detected, ""),
				"cta_text":     detected.CTAText,
				"fields":       detected.Fields,
			}
		} else {
			md["suspended_forms_detected"] = in.Session.SuspendedForms
		}
		return Result{Message: in.Message, CTAButtons: []cta.Card{}, Metadata: md}
	}

	// Rule 3: legacy direct form trigger.
	if formID, form := detectForm(in.UserMessage, cfg); form != nil {
		program := formProgram(formID, form)
		if program == "" || !containsString(in.Session.CompletedForms, program) {
			card := cta.Card{
				"type":          "form_cta",
				"action":        "start_form",
				"formId":        formID,
				"label":         formLabel(form),
				"fields":        form.Fields,
				cta.PositionKey: cta.PositionPrimary,
			}
			if program != "" {
				card["program"] = program
			}
			return Result{
				Message:    in.Message,
				CTAButtons: []cta.Card{card},
				Metadata: map[string]interface{}{
					"enhanced":       true,
					"form_triggered": formID,
				},
			}
		}
	}

	// Rule 4: legacy keyword detection. Never runs when the request carried
	// explicit routing metadata, even if that routing failed to resolve.
	if !in.Routing.IsExplicit() && engagementRe.MatchString(in.UserMessage) {
		if branch := matchKeywordBranch(in.Message, cfg); branch != "" {
			buttons := cta.BuildLegacy(branch, cfg, in.Session.CompletedForms)
			if len(buttons) > 0 {
				return Result{
					Message:    in.Message,
					CTAButtons: buttons,
					Metadata: map[string]interface{}{
						"enhanced":       true,
						"routing_method": "keyword",
						"branch":         branch,
					},
				}
			}
		}
	}

	// Rule 5: nothing to add.
	return Result{
		Message:    in.Message,
		CTAButtons: []cta.Card{},
		Metadata:   map[string]interface{}{"enhanced": false},
	}
}

// detectForm returns the first enabled form whose trigger phrases match the
// user message. Forms are scanned in id order for determinism.
func detectForm(userMessage string, cfg *tenant.Config) (string, *tenant.Form) {
	msg := strings.ToLower(userMessage)
	if strings.TrimSpace(msg) == "" {
		return "", nil
	}

	ids := make([]string, 0, len(cfg.ConversationalForms))
	for id := range cfg.ConversationalForms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		form := cfg.ConversationalForms[id]
		if !form.IsEnabled() {
			continue
		}
		for _, phrase := range form.TriggerPhrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase != "" && strings.Contains(msg, phrase) {
				return id, &form
			}
		}
	}
	return "", nil
}

// matchKeywordBranch scans branches in legacy priority order for a detection
// keyword appearing in the assistant text.
func matchKeywordBranch(assistantText string, cfg *tenant.Config) string {
	text := strings.ToLower(assistantText)
	for _, name := range legacyBranchOrder {
		branch, ok := cfg.ConversationBranches[name]
		if !ok {
			continue
		}
		for _, kw := range branch.DetectionKeywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return name
			}
		}
	}
	return ""
}

// programName resolves a display name for a form: the visitor's declared
// program interest when it maps, else the form title minus the trailing word
// "Application".
func programName(form *tenant.Form, programInterest string) string {
	if name, ok := programNames[programInterest]; ok {
		return name
	}
	title := strings.TrimSpace(form.Title)
	title = strings.TrimSpace(strings.TrimSuffix(title, "Application"))
	return title
}

func formProgram(formID string, form *tenant.Form) string {
	if form.Program != "" {
		return form.Program
	}
	return cta.ProgramForFormID(formID)
}

func formLabel(form *tenant.Form) string {
	if form.CTAText != "" {
		return form.CTAText
	}
	return form.Title
}

func emptyIfNil(cards []cta.Card) []cta.Card {
	if cards == nil {
		return []cta.Card{}
	}
	return cards
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
