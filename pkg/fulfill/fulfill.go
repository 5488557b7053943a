// Package fulfill fans a form submission out to its delivery channels. Each
// channel runs independently; a failure is recorded in the result array and
// never aborts the siblings.
package fulfill

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatrelay/chatrelay/pkg/cta"
	"github.com/chatrelay/chatrelay/pkg/smsmeter"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// Channel result statuses.
const (
	StatusSent    = "sent"
	StatusStored  = "stored"
	StatusInvoked = "invoked"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ReasonMonthlyLimit marks an SMS skipped by the usage meter.
const ReasonMonthlyLimit = "monthly_limit_reached"

// ChannelResult is one channel's outcome. The array order in a fulfillment
// response is the execution order.
type ChannelResult struct {
	Channel  string `json:"channel"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Usage    *int64 `json:"usage,omitempty"`
	Limit    *int64 `json:"limit,omitempty"`
	Function string `json:"function,omitempty"`
	Location string `json:"location,omitempty"`
}

// Request identifies one submission to fulfill.
type Request struct {
	FormID         string
	FormData       map[string]interface{}
	Config         *tenant.Config
	SubmissionID   string
	Priority       string
	SessionID      string
	ConversationID string
}

// Mailer sends HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, body string) error
}

// FunctionInvoker fires a named function asynchronously.
type FunctionInvoker interface {
	InvokeAsync(ctx context.Context, functionName string, payload []byte) error
}

// Archiver stores a submission document.
type Archiver interface {
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// Poster POSTs JSON to an external endpoint.
type Poster interface {
	PostJSON(ctx context.Context, url string, payload interface{}, headers map[string]string) (*http.Response, error)
}

// Meter decides whether an SMS send is within budget.
type Meter interface {
	CheckAndIncrement(ctx context.Context, tenantID string, monthlyLimit int64) smsmeter.Decision
}

// Options carries the environment defaults a tenant config may override.
type Options struct {
	BubbleWebhookURL string
	BubbleAPIKey     string
	ArchiveBucket    string
	SMSMonthlyLimit  int64
}

// Orchestrator executes the channel sequence for one submission.
type Orchestrator struct {
	poster  Poster
	mailer  Mailer
	sms     SMSSender
	invoker FunctionInvoker
	archive Archiver
	meter   Meter
	opts    Options
	now     func() time.Time
}

// New wires an orchestrator. Any dependency may be nil; its channel then
// reports failed when selected.
func New(poster Poster, mailer Mailer, sms SMSSender, invoker FunctionInvoker, archive Archiver, meter Meter, opts Options) *Orchestrator {
	return &Orchestrator{
		poster:  poster,
		mailer:  mailer,
		sms:     sms,
		invoker: invoker,
		archive: archive,
		meter:   meter,
		opts:    opts,
		now:     time.Now,
	}
}

// Fulfill runs the channels in order: Bubble, nested function or archive,
// email, SMS, webhook. Channels not configured for the form are not run.
func (o *Orchestrator) Fulfill(ctx context.Context, req Request) []ChannelResult {
	form := req.Config.ConversationalForms[req.FormID]
	spec := effectiveFulfillment(&form, req.Config)

	results := []ChannelResult{}
	appendResult := func(r *ChannelResult) {
		if r == nil {
			return
		}
		if r.Status == StatusFailed {
			slog.Warn("Fulfillment channel failed",
				"channel", r.Channel, "submission_id", req.SubmissionID, "error", r.Error)
		} else {
			slog.Info("Fulfillment channel done",
				"channel", r.Channel, "submission_id", req.SubmissionID, "status", r.Status)
		}
		results = append(results, *r)
	}

	appendResult(o.bubble(ctx, req, &form))

	switch spec.Type {
	case "lambda":
		appendResult(o.nestedFunction(ctx, req, spec))
	case "s3":
		appendResult(o.archiveSubmission(ctx, req, spec))
	}

	if spec.EmailTo != "" {
		appendResult(o.email(ctx, req, &form, spec))
	}
	if spec.SMSTo != "" {
		appendResult(o.smsNotify(ctx, req, spec))
	}
	if spec.WebhookURL != "" {
		appendResult(o.webhook(ctx, req, spec))
	}

	return results
}

// effectiveFulfillment prefers the form's own fulfillment block over the
// tenant default. Never nil.
func effectiveFulfillment(form *tenant.Form, cfg *tenant.Config) *tenant.Fulfillment {
	if form.Fulfillment != nil {
		return form.Fulfillment
	}
	if cfg.DefaultFulfillment != nil {
		return cfg.DefaultFulfillment
	}
	return &tenant.Fulfillment{}
}

func (o *Orchestrator) bubble(ctx context.Context, req Request, form *tenant.Form) *ChannelResult {
	url := o.opts.BubbleWebhookURL
	apiKey := o.opts.BubbleAPIKey
	if bi := req.Config.BubbleIntegration; bi != nil {
		if bi.WebhookURL != "" {
			url = bi.WebhookURL
		}
		if bi.APIKey != "" {
			apiKey = bi.APIKey
		}
	}
	if url == "" {
		return nil
	}

	result := &ChannelResult{Channel: "bubble"}
	if o.poster == nil {
		result.Status = StatusFailed
		result.Error = "no HTTP poster configured"
		return result
	}

	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	resp, err := o.poster.PostJSON(ctx, url, o.bubbleEnvelope(req, form), headers)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("bubble webhook returned HTTP %d", resp.StatusCode)
		return result
	}

	result.Status = StatusSent
	return result
}

func (o *Orchestrator) nestedFunction(ctx context.Context, req Request, spec *tenant.Fulfillment) *ChannelResult {
	result := &ChannelResult{Channel: "lambda", Function: spec.FunctionName}
	if o.invoker == nil || spec.FunctionName == "" {
		result.Status = StatusFailed
		result.Error = "no function configured"
		return result
	}

	payload, err := functionPayload(req)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	if err := o.invoker.InvokeAsync(ctx, spec.FunctionName, payload); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = StatusInvoked
	return result
}

func (o *Orchestrator) archiveSubmission(ctx context.Context, req Request, spec *tenant.Fulfillment) *ChannelResult {
	bucket := spec.Bucket
	if bucket == "" {
		bucket = o.opts.ArchiveBucket
	}
	key := fmt.Sprintf("submissions/%s/%s/%s.json", tenantID(req.Config), req.FormID, req.SubmissionID)

	result := &ChannelResult{Channel: "s3", Location: fmt.Sprintf("s3://%s/%s", bucket, key)}
	if o.archive == nil || bucket == "" {
		result.Status = StatusFailed
		result.Error = "no archive bucket configured"
		return result
	}

	body, err := archiveBody(req, o.now().UTC())
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	if err := o.archive.Put(ctx, bucket, key, body); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = StatusStored
	return result
}

func (o *Orchestrator) email(ctx context.Context, req Request, form *tenant.Form, spec *tenant.Fulfillment) *ChannelResult {
	result := &ChannelResult{Channel: "email"}
	if o.mailer == nil {
		result.Status = StatusFailed
		result.Error = "no mailer configured"
		return result
	}

	subject, body := submissionEmail(req, form)
	if err := o.mailer.Send(ctx, spec.EmailTo, subject, body); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = StatusSent
	return result
}

func (o *Orchestrator) smsNotify(ctx context.Context, req Request, spec *tenant.Fulfillment) *ChannelResult {
	result := &ChannelResult{Channel: "sms"}
	if o.sms == nil || o.meter == nil {
		result.Status = StatusFailed
		result.Error = "no SMS sender configured"
		return result
	}

	decision := o.meter.CheckAndIncrement(ctx, tenantID(req.Config), o.opts.SMSMonthlyLimit)
	result.Limit = &decision.Limit

	if !decision.Allowed {
		result.Status = StatusSkipped
		result.Reason = ReasonMonthlyLimit
		result.Usage = &decision.UsageBefore
		return result
	}
	result.Usage = &decision.UsageAfter

	if err := o.sms.Send(ctx, spec.SMSTo, smsBody(req)); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = StatusSent
	return result
}

func (o *Orchestrator) webhook(ctx context.Context, req Request, spec *tenant.Fulfillment) *ChannelResult {
	result := &ChannelResult{Channel: "webhook"}
	if o.poster == nil {
		result.Status = StatusFailed
		result.Error = "no HTTP poster configured"
		return result
	}

	payload := map[string]interface{}{
		"form_id":       req.FormID,
		"submission_id": req.SubmissionID,
		"priority":      req.Priority,
		"timestamp":     o.now().UTC().Format(time.RFC3339),
		"data":          req.FormData,
	}

	resp, err := o.poster.PostJSON(ctx, spec.WebhookURL, payload, nil)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("webhook returned HTTP %d", resp.StatusCode)
		return result
	}
	result.Status = StatusSent
	return result
}

// tenantID prefers the canonical id, falling back to the hash for configs
// predating the mapping layer.
func tenantID(cfg *tenant.Config) string {
	if cfg.TenantID != "" {
		return cfg.TenantID
	}
	return cfg.TenantHash
}

// programID resolves the program a form belongs to, for the Bubble envelope.
func programID(formID string, form *tenant.Form) string {
	if form.Program != "" {
		return form.Program
	}
	return cta.ProgramForFormID(formID)
}
