package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scan-io-git/remedy/pkg/shared/files"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("global config: configuration object is nil")
	}
	if err := ValidateRemedyConfig(cfg); err != nil {
		return fmt.Errorf("global config: remedy directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateScannerConfig(&cfg.Scanner); err != nil {
		return fmt.Errorf("global config: scanner directive is invalid: %w", err)
	}
	if err := ValidateTiers(cfg.Tiers); err != nil {
		return fmt.Errorf("global config: tiers directive is invalid: %w", err)
	}
	if err := ValidateStrategist(&cfg.Strategist); err != nil {
		return fmt.Errorf("global config: strategist directive is invalid: %w", err)
	}
	for model, rate := range cfg.Pricing {
		if rate.Input < 0 || rate.Output < 0 {
			return fmt.Errorf("global config: pricing for %q cannot be negative", model)
		}
	}
	return nil
}

// ValidateRemedyConfig checks the engine settings and prepares the working folders.
func ValidateRemedyConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("remedy configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Remedy.ResultsFolder, "REMEDY_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	if err := updateFolder(&cfg.Remedy.PluginsFolder, "REMEDY_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if r := GetWindowRadius(cfg); r < 0 {
		return fmt.Errorf("window_radius must not be negative: %d", r)
	}
	switch cfg.Remedy.LineTracking {
	case LineTrackingStatic, LineTrackingShift:
	default:
		return fmt.Errorf("unknown line_tracking %q, expected %q or %q", cfg.Remedy.LineTracking, LineTrackingStatic, LineTrackingShift)
	}
	return nil
}

// ValidateScannerConfig checks the static analyzer settings.
func ValidateScannerConfig(sc *Scanner) error {
	if sc == nil {
		return fmt.Errorf("scanner configuration is nil")
	}
	switch sc.Kind {
	case ScannerKindBandit, ScannerKindPlugin:
	default:
		return fmt.Errorf("unknown scanner kind %q", sc.Kind)
	}
	switch sc.Format {
	case ScannerFormatJSON, ScannerFormatSARIF:
	default:
		return fmt.Errorf("unsupported scanner format %q", sc.Format)
	}
	return validateDuration(sc.Timeout, "timeout", 1*time.Hour)
}

// ValidateTiers checks that the escalation ladder is non-empty and strictly ascending.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("at least one tier must be configured")
	}
	prev := 0
	for i, t := range tiers {
		if t.Model == "" {
			return fmt.Errorf("tier #%d: model must be specified", i+1)
		}
		if t.Level <= prev {
			return fmt.Errorf("tier %q: level %d must be greater than %d", t.Name, t.Level, prev)
		}
		prev = t.Level
		if _, err := url.Parse(t.Endpoint); err != nil {
			return fmt.Errorf("tier %q: invalid endpoint: %w", t.Name, err)
		}
		if err := validateDuration(t.Timeout, t.Name+".timeout", 1*time.Hour); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategist checks the strategy generator settings.
func ValidateStrategist(s *Strategist) error {
	switch s.Kind {
	case StrategistKindMessage, StrategistKindChat:
		return nil
	default:
		return fmt.Errorf("unknown strategist kind %q", s.Kind)
	}
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 10*time.Minute); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if !strings.Contains(proxy.Host, "://") {
		proxy.Host = "http://" + proxy.Host
	}
	proxy.Host = strings.TrimRight(proxy.Host, "/")

	if _, err := url.Parse(proxy.Host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}
	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", proxy.Port)
	}
	return nil
}

// updateHome updates the HomeFolder from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("REMEDY_HOME"); homeFolder != "" {
		cfg.Remedy.HomeFolder = homeFolder
	} else if cfg.Remedy.HomeFolder == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Remedy.HomeFolder = filepath.Join(userHome, ".remedy")
	}

	expanded, err := files.ExpandPath(cfg.Remedy.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand home path %q: %w", cfg.Remedy.HomeFolder, err)
	}
	cfg.Remedy.HomeFolder = expanded

	if err := files.CreateFolderIfNotExists(expanded); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", expanded, err)
	}
	return nil
}

// updateFolder resolves a folder path from env, config or the home folder and creates it.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(GetRemedyHome(cfg), defaultSubFolder)
	}

	expanded, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expanded

	if err := files.CreateFolderIfNotExists(expanded); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expanded, err)
	}
	return nil
}
