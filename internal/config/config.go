// Package config loads devcrew configuration. Values come from built-in
// defaults, the user config under the XDG config directory, the nearest
// .devcrew.yaml above the working directory, and the environment, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectConfigName is the per-project config file, searched upward from
// the working directory.
const ProjectConfigName = ".devcrew.yaml"

// Config holds all configuration for devcrew.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Project      ProjectConfig      `mapstructure:"project"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Evaluation   EvaluationConfig   `mapstructure:"evaluation"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Log          LogConfig          `mapstructure:"log"`
	State        StateConfig        `mapstructure:"state"`
	Roster       RosterConfig       `mapstructure:"roster"`
}

// AnthropicConfig holds reasoning engine settings.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	// Bedrock routes requests through AWS Bedrock instead of the Anthropic API.
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// ProjectConfig locates the codebase the crew works on.
type ProjectConfig struct {
	// Path is the directory file tools are rooted at.
	Path string `mapstructure:"path"`
}

// OrchestratorConfig holds delegation settings.
type OrchestratorConfig struct {
	MaxParallel int `mapstructure:"max_parallel"`
}

// EvaluationConfig holds test mode settings.
type EvaluationConfig struct {
	// Model scores test runs when none is given on the command line.
	Model string `mapstructure:"model"`
}

// ToolsConfig holds tool box settings.
type ToolsConfig struct {
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
	Shell       []string      `mapstructure:"shell"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is relative to the project path unless absolute.
	File string `mapstructure:"file"`
}

// StateConfig locates the session database.
type StateConfig struct {
	// Path is relative to the project path unless absolute. Empty means
	// .devcrew/state.db.
	Path string `mapstructure:"path"`
}

// RosterConfig points at an optional crew roster override file.
type RosterConfig struct {
	File string `mapstructure:"file"`
}

// Load loads configuration for the working directory.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, DEVCREW_*)
// 2. Project config (.devcrew.yaml in the current directory or a parent)
// 3. User config (~/.config/devcrew/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return LoadDir(getUserConfigDir(), cwd)
}

// LoadDir is Load with explicit user config and start directories.
func LoadDir(userConfigDir, startDir string) (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig(startDir)
	if projectConfig != "" {
		pv := viper.New()
		pv.SetConfigFile(projectConfig)
		if err := pv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	// A relative project path in .devcrew.yaml is relative to that file.
	if projectConfig != "" && !filepath.IsAbs(cfg.Project.Path) {
		cfg.Project.Path = filepath.Join(filepath.Dir(projectConfig), cfg.Project.Path)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEVCREW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "DEVCREW_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	var problems []string
	if c.Orchestrator.MaxParallel < 1 {
		problems = append(problems, fmt.Sprintf("orchestrator.max_parallel must be at least 1, got %d", c.Orchestrator.MaxParallel))
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		problems = append(problems, fmt.Sprintf("anthropic.temperature must be between 0 and 1, got %g", c.Anthropic.Temperature))
	}
	if c.Anthropic.MaxTokens < 1 {
		problems = append(problems, fmt.Sprintf("anthropic.max_tokens must be positive, got %d", c.Anthropic.MaxTokens))
	}
	if c.Anthropic.Bedrock && c.Anthropic.AWSRegion == "" {
		problems = append(problems, "anthropic.aws_region is required with anthropic.bedrock")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ProjectRoot returns the absolute project path.
func (c *Config) ProjectRoot() (string, error) {
	p := c.Project.Path
	if p == "" {
		p = "."
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve project path: %w", err)
	}
	return abs, nil
}

// StatePath returns the session database path under root.
func (c *Config) StatePath(root string) string {
	if c.State.Path == "" {
		return filepath.Join(root, ".devcrew", "state.db")
	}
	return resolve(root, c.State.Path)
}

// LogPath returns the log file path under root.
func (c *Config) LogPath(root string) string {
	return resolve(root, c.Log.File)
}

// RosterPath returns the roster override path under root, or "".
func (c *Config) RosterPath(root string) string {
	if c.Roster.File == "" {
		return ""
	}
	return resolve(root, c.Roster.File)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.temperature", d.Anthropic.Temperature)
	v.SetDefault("anthropic.max_tokens", d.Anthropic.MaxTokens)
	v.SetDefault("anthropic.bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("project.path", d.Project.Path)
	v.SetDefault("orchestrator.max_parallel", d.Orchestrator.MaxParallel)
	v.SetDefault("evaluation.model", d.Evaluation.Model)
	v.SetDefault("tools.exec_timeout", d.Tools.ExecTimeout.String())
	v.SetDefault("tools.shell", d.Tools.Shell)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("state.path", "")
	v.SetDefault("roster.file", "")
}

// getUserConfigDir returns the XDG config directory for devcrew.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "devcrew")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "devcrew")
	}
	return filepath.Join(home, ".config", "devcrew")
}

// findProjectConfig searches for .devcrew.yaml in dir and its parents.
func findProjectConfig(dir string) string {
	for {
		configPath := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:       "claude-sonnet-4-20250514",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
		Project:      ProjectConfig{Path: "."},
		Orchestrator: OrchestratorConfig{MaxParallel: 3},
		Evaluation:   EvaluationConfig{Model: "claude-haiku-4-5-20251001"},
		Tools: ToolsConfig{
			ExecTimeout: 2 * time.Minute,
			Shell:       []string{"bash", "-c"},
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(".devcrew", "logs", "devcrew.log"),
		},
	}
}
