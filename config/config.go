// Package config loads the YAML configuration surface: agent identity and
// ceilings, provider records, routing strategy and rules, the permission
// policy and the confirmation window. Values like ${ANTHROPIC_API_KEY}
// expand from the environment; unset variables keep the literal text so
// misconfiguration stays visible.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/howtimeschange/honolulu/permission"
	"github.com/howtimeschange/honolulu/router"
)

// Provider kinds accepted in configuration.
const (
	KindAnthropic = "anthropic"
	KindOpenAI    = "openai"
	KindGemini    = "gemini"
)

// Config is the root configuration document.
type Config struct {
	Agent        AgentConfig        `yaml:"agent"`
	Providers    []ProviderConfig   `yaml:"providers"`
	Router       RouterConfig       `yaml:"router"`
	Permissions  PermissionsConfig  `yaml:"permissions"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
}

// AgentConfig describes the primary agent.
type AgentConfig struct {
	Name          string `yaml:"name"`
	Instruction   string `yaml:"instruction"`
	MaxModelCalls int    `yaml:"max_model_calls"`
	MemoryRecall  int    `yaml:"memory_recall"`
}

// ProviderConfig describes one registered model provider.
type ProviderConfig struct {
	Name            string   `yaml:"name"`
	Kind            string   `yaml:"kind"`
	Model           string   `yaml:"model"`
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	MaxTokens       int64    `yaml:"max_tokens"`
	Priority        int      `yaml:"priority"`
	CostPer1KInput  float64  `yaml:"cost_per_1k_input"`
	CostPer1KOutput float64  `yaml:"cost_per_1k_output"`
	Capabilities    []string `yaml:"capabilities"`
}

// RouterConfig selects the routing strategy and its rule overrides.
type RouterConfig struct {
	Strategy string       `yaml:"strategy"`
	Rules    []RuleConfig `yaml:"rules"`
}

// RuleConfig is one routing rule; empty condition fields are wildcards.
type RuleConfig struct {
	Name           string   `yaml:"name"`
	Priority       int      `yaml:"priority"`
	Target         string   `yaml:"target"`
	Kinds          []string `yaml:"kinds"`
	Complexities   []string `yaml:"complexities"`
	VisionRequired *bool    `yaml:"vision_required"`
	MinContextSize int      `yaml:"min_context_size"`
}

// PermissionsConfig mirrors permission.Policy in YAML shape.
type PermissionsConfig struct {
	Mode                string   `yaml:"mode"`
	BlockedPaths        []string `yaml:"blocked_paths"`
	AllowedPaths        []string `yaml:"allowed_paths"`
	BlockedCommands     []string `yaml:"blocked_commands"`
	AllowedCommands     []string `yaml:"allowed_commands"`
	ConfirmCapabilities []string `yaml:"confirm_capabilities"`
	SafeCapabilities    []string `yaml:"safe_capabilities"`
}

// ConfirmationConfig bounds the confirmation decision window.
type ConfirmationConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Load reads, expands and parses the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse expands environment references and unmarshals the YAML document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.Name == "" {
		c.Agent.Name = "assistant"
	}
	if c.Agent.MaxModelCalls <= 0 {
		c.Agent.MaxModelCalls = 50
	}
	if c.Agent.MemoryRecall <= 0 {
		c.Agent.MemoryRecall = 3
	}
	if c.Router.Strategy == "" {
		c.Router.Strategy = string(router.StrategyQualityFirst)
	}
	if c.Permissions.Mode == "" {
		c.Permissions.Mode = string(permission.ModeInteractive)
	}
	if c.Confirmation.TimeoutSeconds <= 0 {
		c.Confirmation.TimeoutSeconds = 300
	}
}

// Validate checks enumerated fields and cross references.
func (c *Config) Validate() error {
	if _, err := router.ParseStrategy(c.Router.Strategy); err != nil {
		return err
	}
	if _, err := permission.ParseMode(c.Permissions.Mode); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("duplicate provider %q", p.Name)
		}
		names[p.Name] = struct{}{}
		switch p.Kind {
		case KindAnthropic, KindOpenAI, KindGemini:
		default:
			return fmt.Errorf("provider %q has unknown kind %q", p.Name, p.Kind)
		}
	}

	for _, r := range c.Router.Rules {
		if r.Target == "" {
			return fmt.Errorf("rule %q has no target", r.Name)
		}
		if _, ok := names[r.Target]; !ok {
			return fmt.Errorf("rule %q targets unknown provider %q", r.Name, r.Target)
		}
	}
	return nil
}

// Policy converts the permissions section into a compiled-ready policy.
func (c *PermissionsConfig) Policy() permission.Policy {
	mode, _ := permission.ParseMode(c.Mode)
	return permission.Policy{
		Mode:                mode,
		BlockedPaths:        c.BlockedPaths,
		AllowedPaths:        c.AllowedPaths,
		BlockedCommands:     c.BlockedCommands,
		AllowedCommands:     c.AllowedCommands,
		ConfirmCapabilities: c.ConfirmCapabilities,
		SafeCapabilities:    c.SafeCapabilities,
	}
}

// Strategy returns the parsed routing strategy.
func (c *RouterConfig) ParsedStrategy() (router.Strategy, error) {
	return router.ParseStrategy(c.Strategy)
}

// RouterRules converts the rule list into router.Rule values.
func (c *RouterConfig) RouterRules() []router.Rule {
	rules := make([]router.Rule, 0, len(c.Rules))
	for _, rc := range c.Rules {
		rule := router.Rule{
			Name:           rc.Name,
			Priority:       rc.Priority,
			Target:         rc.Target,
			VisionRequired: rc.VisionRequired,
			MinContextSize: rc.MinContextSize,
		}
		for _, k := range rc.Kinds {
			rule.Kinds = append(rule.Kinds, router.TaskKind(k))
		}
		for _, cx := range rc.Complexities {
			rule.Complexities = append(rule.Complexities, router.Complexity(cx))
		}
		rules = append(rules, rule)
	}
	return rules
}

// Timeout returns the confirmation decision window as a duration.
func (c *ConfirmationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references that are set in the environment
// and leaves unset ones as literal text.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := envRef.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}
