// Package tenant defines the per-tenant configuration document and the
// read-through store that resolves tenant hashes to cached config snapshots.
package tenant

// Config is the authoritative per-tenant document. It is read from object
// storage and never written by the gateway. Documents in the wild span several
// schema generations, so legacy aliases are kept alongside current fields.
type Config struct {
	TenantID         string `json:"tenant_id"`
	TenantHash       string `json:"tenant_hash"`
	OrganizationName string `json:"organization_name"`

	// RoleInstructions defines the AI persona. TonePrompt is the legacy
	// alias and is consulted only when RoleInstructions is empty.
	RoleInstructions string `json:"role_instructions"`
	TonePrompt       string `json:"tone_prompt"`

	FormattingPreferences Formatting `json:"formatting_preferences"`
	CustomConstraints     []string   `json:"custom_constraints"`
	FallbackMessage       string     `json:"fallback_message"`

	ConversationBranches map[string]Branch `json:"conversation_branches"`

	// CTADefinitions stay schemaless: cards are cloned into responses with
	// whatever keys the tenant authored, minus presentational fields.
	CTADefinitions map[string]map[string]interface{} `json:"cta_definitions"`
	CTASettings    CTASettings                       `json:"cta_settings"`

	ActionChips     []ActionChip    `json:"action_chips"`
	ContentShowcase []ShowcaseItem  `json:"content_showcase"`

	ConversationalForms map[string]Form `json:"conversational_forms"`

	BubbleIntegration     *BubbleIntegration `json:"bubble_integration"`
	DefaultFulfillment    *Fulfillment       `json:"default_fulfillment"`
	SendConfirmationEmail *bool              `json:"send_confirmation_email"`

	AWS       AWSBinding        `json:"aws"`
	ModelID   string            `json:"model_id"`
	Streaming StreamingSettings `json:"streaming"`
}

// Formatting selects the response style contract injected into the prompt.
type Formatting struct {
	ResponseStyle        string `json:"response_style"`
	DetailLevel          string `json:"detail_level"`
	EmojiUsage           string `json:"emoji_usage"`
	MaxEmojisPerResponse int    `json:"max_emojis_per_response"`
}

// Branch groups the CTAs offered for one conversation topic.
// DetectionKeywords belong to the legacy keyword router and are ignored by
// the explicit routing resolver.
type Branch struct {
	AvailableCTAs     CTARefs  `json:"available_ctas"`
	ShowcaseItemID    string   `json:"showcase_item_id"`
	DetectionKeywords []string `json:"detection_keywords"`
}

// CTARefs references CTA definitions by id.
type CTARefs struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
}

// CTASettings controls CTA presentation.
type CTASettings struct {
	FallbackBranch string `json:"fallback_branch"`
	MaxDisplay     int    `json:"max_display"`
}

// ActionChip is a pre-typed suggestion shown by the widget before the user
// writes anything. Clicking one injects a canned message plus a target branch.
type ActionChip struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Value        string `json:"value"`
	TargetBranch string `json:"target_branch"`
}

// ShowcaseItem is a rich content card attached to a branch.
type ShowcaseItem struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Tagline       string   `json:"tagline"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	Highlights    []string `json:"highlights"`
	AvailableCTAs *CTARefs `json:"available_ctas"`
	Enabled       *bool    `json:"enabled"`
}

// IsEnabled reports whether the showcase item may be shown. Absent means enabled.
func (s *ShowcaseItem) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Form describes a conversational form flow.
type Form struct {
	Title          string         `json:"title"`
	Enabled        *bool          `json:"enabled"`
	Program        string         `json:"program"`
	TriggerPhrases []string       `json:"trigger_phrases"`
	Fields         []Field        `json:"fields"`
	Fulfillment    *Fulfillment   `json:"fulfillment"`
	PriorityRules  []PriorityRule `json:"priority_rules"`
	CTAText        string         `json:"cta_text"`
}

// IsEnabled reports whether the form may be triggered. Absent means enabled.
func (f *Form) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Field is one form field. Composite fields carry subfields.
type Field struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Type     string  `json:"type"`
	Required bool    `json:"required"`
	Fields   []Field `json:"fields"`
}

// Fulfillment declares where a form submission goes.
type Fulfillment struct {
	Type         string `json:"type"`
	FunctionName string `json:"function_name"`
	Bucket       string `json:"bucket"`
	EmailTo      string `json:"email_to"`
	SMSTo        string `json:"sms_to"`
	WebhookURL   string `json:"webhook_url"`
}

// PriorityRule maps a form answer to a submission priority.
type PriorityRule struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Priority string `json:"priority"`
}

// BubbleIntegration configures the Bubble webhook channel.
type BubbleIntegration struct {
	WebhookURL string `json:"webhook_url"`
	APIKey     string `json:"api_key"`
}

// AWSBinding carries the retrieval and model binding for a tenant.
type AWSBinding struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	ModelID         string `json:"model_id"`
}

// StreamingSettings tune model generation.
type StreamingSettings struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// SessionContext is the short-term state the widget carries between turns.
// The gateway never persists it.
type SessionContext struct {
	CompletedForms  []string `json:"completed_forms"`
	SuspendedForms  []string `json:"suspended_forms"`
	ProgramInterest string   `json:"program_interest"`
}

// DefaultInstructions is the persona used when a tenant config is missing or
// defines no role instructions.
const DefaultInstructions = "You are a virtual assistant answering questions of website visitors. " +
	"Be helpful, accurate, and concise."

// Instructions returns the effective role instructions, falling back through
// the legacy tone_prompt alias to the documented default.
func (c *Config) Instructions() string {
	if c.RoleInstructions != "" {
		return c.RoleInstructions
	}
	if c.TonePrompt != "" {
		return c.TonePrompt
	}
	return DefaultInstructions
}

// EffectiveModelID resolves the tenant model binding, preferring the explicit
// aws.model_id, then the top-level model_id, then the process default.
func (c *Config) EffectiveModelID(processDefault string) string {
	if c.AWS.ModelID != "" {
		return c.AWS.ModelID
	}
	if c.ModelID != "" {
		return c.ModelID
	}
	return processDefault
}

// MaxDisplay returns the CTA display cap, defaulting to 3.
func (c *Config) MaxDisplay() int {
	if c.CTASettings.MaxDisplay > 0 {
		return c.CTASettings.MaxDisplay
	}
	return 3
}

// ConfirmationEmailEnabled defaults to true when unset.
func (c *Config) ConfirmationEmailEnabled() bool {
	return c.SendConfirmationEmail == nil || *c.SendConfirmationEmail
}

// KnowledgeBaseID returns the bound knowledge base, empty when retrieval is
// not configured for the tenant.
func (c *Config) KnowledgeBaseID() string {
	return c.AWS.KnowledgeBaseID
}

// DefaultConfig is the minimal substitute used when a tenant config cannot be
// loaded: process model binding, default persona, no branches, no CTAs.
func DefaultConfig(tenantHash, modelID string) *Config {
	return &Config{
		TenantHash:           tenantHash,
		ModelID:              modelID,
		ConversationBranches: map[string]Branch{},
		CTADefinitions:       map[string]map[string]interface{}{},
		ConversationalForms:  map[string]Form{},
	}
}
