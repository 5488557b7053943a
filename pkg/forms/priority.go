package forms

import (
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Submission priorities.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// formTypeDefaults is the last-resort priority per well-known form type.
var formTypeDefaults = map[string]string{
	"request_support": PriorityHigh,
	"volunteer_apply": PriorityNormal,
	"lb_apply":        PriorityNormal,
	"dd_apply":        PriorityNormal,
	"donation":        PriorityNormal,
	"contact":         PriorityNormal,
	"newsletter":      PriorityLow,
}

// DeterminePriority resolves a submission's priority, first match wins:
// the visitor's urgency answer, then config-declared priority rules, then the
// form-type default table.
func DeterminePriority(formID string, formData map[string]interface{}, form *tenant.Form) string {
	if urgency, ok := formData["urgency"]; ok && urgency != nil {
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(urgency))) {
		case "":
			// fall through to the rules below
		case "immediate", "urgent", "high":
			return PriorityHigh
		case "normal", "this week":
			return PriorityNormal
		default:
			return PriorityLow
		}
	}

	if form != nil {
		for _, rule := range form.PriorityRules {
			if v, ok := formData[rule.Field]; ok && fmt.Sprint(v) == rule.Value {
				return rule.Priority
			}
		}
	}

	if p, ok := formTypeDefaults[formID]; ok {
		return p
	}
	return PriorityNormal
}
