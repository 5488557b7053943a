package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, opts.Port)
	assert.Equal(t, 100, opts.SMSMonthlyLimit)
	assert.Equal(t, "0.0.0.0:8080", opts.Address())
	assert.Equal(t, "2s", opts.HeartbeatInterval.String())
	assert.Equal(t, "5m0s", opts.CacheTTL.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_BUCKET", "tenant-configs")
	t.Setenv("SMS_MONTHLY_LIMIT", "25")
	t.Setenv("SES_FROM_EMAIL", "noreply@example.org")

	opts, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tenant-configs", opts.ConfigBucket)
	assert.Equal(t, 25, opts.SMSMonthlyLimit)
	assert.Equal(t, "noreply@example.org", opts.SESFromEmail)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: 9090\nconfig_bucket: from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("CONFIG_BUCKET", "from-env")

	opts, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, opts.Port)
	assert.Equal(t, "from-env", opts.ConfigBucket, "environment wins over file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid defaults", func(o *Options) {}, false},
		{"zero port", func(o *Options) { o.Port = 0 }, true},
		{"port out of range", func(o *Options) { o.Port = 70000 }, true},
		{"negative sms limit", func(o *Options) { o.SMSMonthlyLimit = -1 }, true},
		{"zero heartbeat", func(o *Options) { o.HeartbeatInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Load("")
			require.NoError(t, err)
			tt.mutate(opts)
			err = opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
