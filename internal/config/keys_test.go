package config

import (
	"errors"
	"testing"
)

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		cfgKey  string
		want    string
		wantErr error
		source  KeySource
	}{
		{name: "environment wins", env: "sk-ant-env-key", cfgKey: "sk-ant-config-key", want: "sk-ant-env-key", source: KeySourceEnv},
		{name: "config file", cfgKey: "sk-ant-config-key", want: "sk-ant-config-key", source: KeySourceConfig},
		{name: "unresolved reference", cfgKey: "${DEVCREW_TEST_UNSET_KEY}", wantErr: ErrNoAPIKey, source: KeySourceNone},
		{name: "nothing configured", wantErr: ErrNoAPIKey, source: KeySourceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", tt.env)
			cfg := &Config{Anthropic: AnthropicConfig{APIKey: tt.cfgKey}}

			key, err := GetAPIKey(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetAPIKey() error = %v, want %v", err, tt.wantErr)
			}
			if key != tt.want {
				t.Errorf("GetAPIKey() = %q, want %q", key, tt.want)
			}
			if src := GetAPIKeySource(cfg); src != tt.source {
				t.Errorf("GetAPIKeySource() = %q, want %q", src, tt.source)
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if err := RequireCredentials(&Config{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	bedrock := &Config{Anthropic: AnthropicConfig{Bedrock: true, AWSRegion: "us-west-2"}}
	if err := RequireCredentials(bedrock); err != nil {
		t.Errorf("bedrock should not need an API key: %v", err)
	}
	if src := GetAPIKeySource(bedrock); src != KeySourceBedrock {
		t.Errorf("GetAPIKeySource() = %q, want %q", src, KeySourceBedrock)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk-ant-REDACTED", "sk-ant-...mnop"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
