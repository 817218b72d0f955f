package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured (set ANTHROPIC_API_KEY or anthropic.api_key)")

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_bedrock"
	KeySourceNone    KeySource = "none"
)

// GetAPIKey returns the Anthropic API key. The ANTHROPIC_API_KEY
// environment variable wins over the config file.
func GetAPIKey(cfg *Config) (string, error) {
	key, _ := lookupKey(cfg)
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// RequireCredentials returns nil when the engine can authenticate: either an
// API key is set or requests go through Bedrock, which uses AWS credentials.
func RequireCredentials(cfg *Config) error {
	if cfg != nil && cfg.Anthropic.Bedrock {
		return nil
	}
	_, err := GetAPIKey(cfg)
	return err
}

// GetAPIKeySource returns where the engine's credentials come from.
func GetAPIKeySource(cfg *Config) KeySource {
	if cfg != nil && cfg.Anthropic.Bedrock {
		return KeySourceBedrock
	}
	_, src := lookupKey(cfg)
	return src
}

func lookupKey(cfg *Config) (string, KeySource) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, KeySourceEnv
	}
	if cfg != nil && cfg.Anthropic.APIKey != "" {
		// Unresolved ${VAR} references count as unset.
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig
		}
	}
	return "", KeySourceNone
}

// MaskAPIKey returns a masked version of the API key for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 15 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
