package config

import (
	"crypto/tls"
	"time"
)

const (
	ScannerKindBandit = "bandit"
	ScannerKindPlugin = "plugin"

	ScannerFormatJSON  = "json"
	ScannerFormatSARIF = "sarif"

	LineTrackingStatic = "static"
	LineTrackingShift  = "shift"

	StrategistKindMessage = "message"
	StrategistKindChat    = "chat"

	DefaultWindowRadius = 5
	DefaultDataset      = "py_dst"
	DefaultVersion      = "v1.0.0"
	DefaultEndpoint     = "https://api.openai.com/v1"
)

// JuniorPrompt is the default tier 1 prompt.
const JuniorPrompt = `You are a cybersecurity specialist. Fix the vulnerable code below without changing what it does.
Use the remediation strategy as your guideline.

VULNERABLE CODE:
{{.Code}}

VULNERABILITY DETAILS AND FIXING STRATEGY:
{{.Strategy}}

TASK:
Rewrite the code snippet so that it is secure.
Output ONLY valid Python code. No markdown, no explanations, no code comments.`

// SeniorPrompt is the default tier 2 prompt used for findings the first tier could not fix.
const SeniorPrompt = `You are a senior cybersecurity specialist. A previous attempt to patch the code below failed.
Patch it without changing what it does. The strategy is a hint; you may deviate from it if it does not work.

VULNERABLE CODE:
{{.Code}}

VULNERABILITY DETAILS AND FIXING STRATEGY:
{{.Strategy}}

TASK:
Rewrite the code snippet so that it is secure.
Output ONLY valid Python code. No markdown, no explanations, no code comments.`

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int           // Number of retries for failed requests
	RetryWaitTime    time.Duration // Wait time between retries
	RetryMaxWaitTime time.Duration // Maximum wait time for retries
	Timeout          time.Duration // Timeout for requests
	TLSClientConfig  *tls.Config   // TLS configuration
	Proxy            string        // Proxy address
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool // Flag to enable Resty debug mode
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       2,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: false,
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns a default configuration for the Resty HTTP client, extending the base HTTP configuration.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

// DefaultTiers returns the junior/senior escalation ladder.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "junior", Level: 1, Model: "gpt-3.5-turbo", Endpoint: DefaultEndpoint, APIKeyEnv: "OPENAI_API_KEY", Prompt: JuniorPrompt},
		{Name: "senior", Level: 2, Model: "gpt-4o", Endpoint: DefaultEndpoint, APIKeyEnv: "OPENAI_API_KEY", Prompt: SeniorPrompt},
	}
}

// DefaultPricing returns USD prices per one million tokens for known models.
func DefaultPricing() map[string]Rate {
	return map[string]Rate{
		"gpt-4o":            {Input: 5.00, Output: 15.00},
		"gpt-3.5-turbo":     {Input: 0.50, Output: 1.50},
		"alibaba-qwen3-32b": {Input: 0.50, Output: 1.50},
	}
}

// ApplyDefaults fills every unset value of cfg.
func ApplyDefaults(cfg *Config) {
	cfg.Remedy.Dataset = SetThen(cfg.Remedy.Dataset, DefaultDataset)
	cfg.Remedy.Version = SetThen(cfg.Remedy.Version, DefaultVersion)
	cfg.Remedy.LineTracking = SetThen(cfg.Remedy.LineTracking, LineTrackingStatic)
	if cfg.Remedy.WindowRadius == nil {
		radius := DefaultWindowRadius
		cfg.Remedy.WindowRadius = &radius
	}

	cfg.Scanner.Kind = SetThen(cfg.Scanner.Kind, ScannerKindBandit)
	cfg.Scanner.Binary = SetThen(cfg.Scanner.Binary, "bandit")
	cfg.Scanner.Format = SetThen(cfg.Scanner.Format, ScannerFormatJSON)
	cfg.Scanner.Plugin = SetThen(cfg.Scanner.Plugin, "bandit")

	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultTiers()
	}
	for i := range cfg.Tiers {
		t := &cfg.Tiers[i]
		t.Level = SetThen(t.Level, i+1)
		t.Endpoint = SetThen(t.Endpoint, DefaultEndpoint)
		t.APIKeyEnv = SetThen(t.APIKeyEnv, "OPENAI_API_KEY")
		if t.Prompt == "" {
			t.Prompt = JuniorPrompt
			if i > 0 {
				t.Prompt = SeniorPrompt
			}
		}
		t.Name = SetThen(t.Name, t.Model)
	}

	cfg.Strategist.Kind = SetThen(cfg.Strategist.Kind, StrategistKindMessage)
	cfg.Strategist.Endpoint = SetThen(cfg.Strategist.Endpoint, DefaultEndpoint)
	cfg.Strategist.APIKeyEnv = SetThen(cfg.Strategist.APIKeyEnv, "OPENAI_API_KEY")
	cfg.Strategist.Model = SetThen(cfg.Strategist.Model, cfg.Tiers[0].Model)

	if cfg.Pricing == nil {
		cfg.Pricing = DefaultPricing()
	}
}
