package forms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatrelay/chatrelay/pkg/fulfill"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// StatusPendingFulfillment is the status a record carries when persisted;
// downstream processors flip it once channels settle.
const StatusPendingFulfillment = "pending_fulfillment"

// Record is the persisted shape of one submission.
type Record struct {
	SubmissionID string                 `dynamodbav:"submission_id" json:"submission_id"`
	TenantID     string                 `dynamodbav:"tenant_id" json:"tenant_id"`
	FormID       string                 `dynamodbav:"form_id" json:"form_id"`
	FormData     map[string]interface{} `dynamodbav:"form_data" json:"form_data"`
	Priority     string                 `dynamodbav:"priority" json:"priority"`
	SubmittedAt  string                 `dynamodbav:"submitted_at" json:"submitted_at"`
	Status       string                 `dynamodbav:"status" json:"status"`
}

// RecordStore persists submission records.
type RecordStore interface {
	Put(ctx context.Context, record Record) error
}

// Fulfiller fans a submission out to its channels.
type Fulfiller interface {
	Fulfill(ctx context.Context, req fulfill.Request) []fulfill.ChannelResult
	SendConfirmation(ctx context.Context, to string, req fulfill.Request) error
}

// SubmitRequest carries one submission into the handler.
type SubmitRequest struct {
	FormID         string
	FormData       map[string]interface{}
	Config         *tenant.Config
	SessionID      string
	ConversationID string
}

// SubmitResult is the form-mode response frame payload.
type SubmitResult struct {
	Type         string                  `json:"type"`
	SubmissionID string                  `json:"submission_id,omitempty"`
	Priority     string                  `json:"priority,omitempty"`
	Fulfillment  []fulfill.ChannelResult `json:"fulfillment,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

// Handler executes form-mode operations.
type Handler struct {
	records   RecordStore
	fulfiller Fulfiller
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler wires a Handler. records may be nil when persistence is not
// configured; submissions then proceed without a stored record.
func NewHandler(records RecordStore, fulfiller Fulfiller, opts ...Option) *Handler {
	h := &Handler{records: records, fulfiller: fulfiller, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Submit validates the request shape, persists a record (non-fatal on
// failure), runs the fulfillment channels, and sends a best-effort
// confirmation email.
func (h *Handler) Submit(ctx context.Context, req SubmitRequest) SubmitResult {
	if req.FormID == "" || req.FormData == nil || req.Config == nil {
		return SubmitResult{
			Type:    "form_error",
			Message: "There was an error submitting your form. Please try again.",
		}
	}

	var form *tenant.Form
	if f, ok := req.Config.ConversationalForms[req.FormID]; ok {
		form = &f
	}

	submissionID := fmt.Sprintf("%s_%d", req.FormID, h.now().UnixMilli())
	priority := DeterminePriority(req.FormID, req.FormData, form)

	record := Record{
		SubmissionID: submissionID,
		TenantID:     tenantID(req.Config),
		FormID:       req.FormID,
		FormData:     req.FormData,
		Priority:     priority,
		SubmittedAt:  h.now().UTC().Format(time.RFC3339),
		Status:       StatusPendingFulfillment,
	}
	if h.records != nil {
		if err := h.records.Put(ctx, record); err != nil {
			slog.Warn("Form record persistence failed",
				"submission_id", submissionID, "error", err)
		}
	}

	fulfillReq := fulfill.Request{
		FormID:         req.FormID,
		FormData:       req.FormData,
		Config:         req.Config,
		SubmissionID:   submissionID,
		Priority:       priority,
		SessionID:      req.SessionID,
		ConversationID: req.ConversationID,
	}
	results := h.fulfiller.Fulfill(ctx, fulfillReq)

	if email := stringValue(req.FormData["email"]); email != "" && req.Config.ConfirmationEmailEnabled() {
		if err := h.fulfiller.SendConfirmation(ctx, email, fulfillReq); err != nil {
			slog.Warn("Confirmation email failed",
				"submission_id", submissionID, "error", err)
		}
	}

	slog.Info("Form submitted",
		"submission_id", submissionID, "form_id", req.FormID, "priority", priority)

	return SubmitResult{
		Type:         "form_complete",
		SubmissionID: submissionID,
		Priority:     priority,
		Fulfillment:  results,
	}
}

func tenantID(cfg *tenant.Config) string {
	if cfg.TenantID != "" {
		return cfg.TenantID
	}
	return cfg.TenantHash
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
