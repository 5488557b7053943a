// Package config resolves process configuration for the gateway.
//
// Resolution order (last wins): built-in defaults, an optional YAML file,
// environment variables. Environment variable names follow the deployment
// contract (CONFIG_BUCKET, ARCHIVE_BUCKET, FORM_SUBMISSIONS_TABLE, SMS_USAGE_TABLE,
// SMS_MONTHLY_LIMIT, SES_FROM_EMAIL, BUBBLE_WEBHOOK_URL, BUBBLE_API_KEY,
// BEDROCK_MODEL_ID).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Options holds the resolved process configuration.
type Options struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ConfigBucket         string `koanf:"config_bucket"`
	ArchiveBucket        string `koanf:"archive_bucket"`
	FormSubmissionsTable string `koanf:"form_submissions_table"`
	SMSUsageTable        string `koanf:"sms_usage_table"`
	SMSMonthlyLimit      int    `koanf:"sms_monthly_limit"`
	SESFromEmail         string `koanf:"ses_from_email"`
	BubbleWebhookURL     string `koanf:"bubble_webhook_url"`
	BubbleAPIKey         string `koanf:"bubble_api_key"`
	BedrockModelID       string `koanf:"bedrock_model_id"`
	AWSRegion            string `koanf:"aws_region"`

	AllowedOrigins []string `koanf:"allowed_origins"`

	RequestTimeout    time.Duration `koanf:"request_timeout"`
	OutboundTimeout   time.Duration `koanf:"outbound_timeout"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"host":               "0.0.0.0",
		"port":               8080,
		"sms_monthly_limit":  100,
		"bedrock_model_id":   "anthropic.claude-3-5-sonnet-20240620-v1:0",
		"allowed_origins":    []string{"*"},
		"request_timeout":    "300s",
		"outbound_timeout":   "10s",
		"heartbeat_interval": "2s",
		"cache_ttl":          "5m",
		"log_level":          "info",
		"log_format":         "simple",
	}
}

// Load resolves Options from defaults, an optional YAML file at path, and
// environment variables.
func Load(path string) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Environment variables map to lower-cased keys: CONFIG_BUCKET → config_bucket.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	opts := &Options{}
	if err := k.Unmarshal("", opts); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks invariants that would otherwise surface as runtime faults.
func (o *Options) Validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port: %d", o.Port)
	}
	if o.SMSMonthlyLimit < 0 {
		return fmt.Errorf("sms_monthly_limit must be non-negative, got %d", o.SMSMonthlyLimit)
	}
	if o.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}
	if o.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	return nil
}

// Address returns the host:port the HTTP server binds to.
func (o *Options) Address() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}
