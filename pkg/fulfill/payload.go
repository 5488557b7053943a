package fulfill

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// bubbleEnvelope builds the fixed-schema document the Bubble workflow
// consumes. form_data is a stringified JSON object with human-readable keys so
// Bubble's no-code side can reference answers by label.
func (o *Orchestrator) bubbleEnvelope(req Request, form *tenant.Form) map[string]interface{} {
	humanized := humanizeFormData(req.FormData, form.Fields)
	encoded, err := json.Marshal(humanized)
	if err != nil {
		encoded = []byte("{}")
	}

	return map[string]interface{}{
		"submission_id":     req.SubmissionID,
		"timestamp":         o.now().UTC().Format(time.RFC3339),
		"tenant_id":         tenantID(req.Config),
		"tenant_hash":       req.Config.TenantHash,
		"organization_name": req.Config.OrganizationName,
		"form_id":           req.FormID,
		"form_title":        form.Title,
		"program_id":        programID(req.FormID, form),
		"session_id":        req.SessionID,
		"conversation_id":   req.ConversationID,
		"form_data":         string(encoded),
	}
}

// humanizeFormData rekeys raw answers by the form's field labels, normalized
// to snake_case. Composite fields expose each subfield by the subfield's
// label. Keys with no matching field fall back to the portion after the last
// dot.
func humanizeFormData(formData map[string]interface{}, fields []tenant.Field) map[string]interface{} {
	labels := map[string]string{}
	for _, f := range fields {
		if len(f.Fields) > 0 {
			for _, sub := range f.Fields {
				labels[f.ID+"."+sub.ID] = snakeCase(sub.Label)
			}
			continue
		}
		labels[f.ID] = snakeCase(f.Label)
	}

	out := make(map[string]interface{}, len(formData))
	for key, value := range formData {
		name := labels[key]
		if name == "" {
			name = key
			if i := strings.LastIndex(key, "."); i >= 0 {
				name = key[i+1:]
			}
		}
		out[name] = value
	}
	return out
}

// snakeCase lowercases a label and collapses runs of non-alphanumerics into
// single underscores.
func snakeCase(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// functionPayload is the envelope handed to a nested function invocation.
func functionPayload(req Request) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"action":        "process_form_submission",
		"form_type":     req.FormID,
		"submission_id": req.SubmissionID,
		"responses":     req.FormData,
		"tenant_id":     tenantID(req.Config),
		"priority":      req.Priority,
	})
}

// archiveBody is the document stored by the object-store channel.
func archiveBody(req Request, now time.Time) ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}{
		"submission_id": req.SubmissionID,
		"tenant_id":     tenantID(req.Config),
		"form_id":       req.FormID,
		"form_data":     req.FormData,
		"priority":      req.Priority,
		"submitted_at":  now.Format(time.RFC3339),
	}, "", "  ")
}
