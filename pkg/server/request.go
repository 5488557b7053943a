package server

import (
	"encoding/json"
	"fmt"

	"github.com/chatrelay/chatrelay/pkg/prompt"
	"github.com/chatrelay/chatrelay/pkg/routing"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// ChatRequest is one inbound turn. The same shape carries normal chat turns
// and form-mode operations; Action discriminates the latter.
type ChatRequest struct {
	TenantHash          string                `json:"tenant_hash"`
	UserInput           string                `json:"user_input"`
	SessionID           string                `json:"session_id"`
	ConversationID      string                `json:"conversation_id"`
	ConversationHistory []prompt.Message      `json:"conversation_history"`
	SessionContext      tenant.SessionContext `json:"session_context"`
	RoutingMetadata     routing.Metadata      `json:"routing_metadata"`

	FormMode   bool                   `json:"form_mode"`
	Action     string                 `json:"action"`
	FormID     string                 `json:"form_id"`
	FieldID    string                 `json:"field_id"`
	FieldValue string                 `json:"field_value"`
	FormData   map[string]interface{} `json:"form_data"`
}

// parseRequest accepts either the direct event shape or an HTTP-event wrapper
// whose "body" field is a JSON string containing the event.
func parseRequest(data []byte) (*ChatRequest, error) {
	var probe struct {
		Body *string `json:"body"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Body != nil {
		data = []byte(*probe.Body)
	}

	req := &ChatRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("malformed request body: %w", err)
	}
	return req, nil
}
