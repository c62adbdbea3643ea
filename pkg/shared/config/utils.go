package config

import (
	"path/filepath"
	"reflect"
	"strings"
)

// GetBoolValue retrieves a boolean value from a nested struct based on a dot-separated path.
// It returns the provided defaultValue if the specified field is not explicitly set or is nil.
func GetBoolValue(config interface{}, fieldPath string, defaultValue bool) bool {
	if config == nil {
		return defaultValue
	}

	fields := strings.Split(fieldPath, ".")
	val := reflect.ValueOf(config)

	for _, field := range fields {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return defaultValue
			}
			val = val.Elem()
		}

		val = val.FieldByName(field)
		if !val.IsValid() {
			return defaultValue
		}
	}

	// Check if the field is a pointer to a bool and is not nil
	if val.Kind() == reflect.Ptr && !val.IsNil() {
		return val.Elem().Bool()
	} else if val.Kind() == reflect.Bool {
		return val.Bool()
	}

	return defaultValue
}

// SetThen provides a utility to select the first value if set, otherwise defaults.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(value).IsZero() {
		return defaultValue
	}
	return value
}

// GetRemedyHome returns the home folder of the application.
func GetRemedyHome(cfg *Config) string {
	return cfg.Remedy.HomeFolder
}

// GetRemedyResultsHome returns the folder used for remediated files and reports.
func GetRemedyResultsHome(cfg *Config) string {
	return cfg.Remedy.ResultsFolder
}

// GetRemedyPluginsHome returns the folder holding scanner plugin binaries.
func GetRemedyPluginsHome(cfg *Config) string {
	return cfg.Remedy.PluginsFolder
}

// GetWindowRadius returns the sliding window radius used by the span resolver.
func GetWindowRadius(cfg *Config) int {
	if cfg == nil || cfg.Remedy.WindowRadius == nil {
		return DefaultWindowRadius
	}
	return *cfg.Remedy.WindowRadius
}

// GetAuditLogPath returns the JSONL audit log path, defaulting into the results folder.
func GetAuditLogPath(cfg *Config) string {
	if cfg.Audit.JSONLPath != "" {
		return cfg.Audit.JSONLPath
	}
	return filepath.Join(GetRemedyResultsHome(cfg), "audit.jsonl")
}
