// env_config.go: Environment variable expansion for configuration files
//
// Configuration files may reference the environment with ${VAR} or
// ${VAR:-default}. Variables are looked up with the CONSTELLATION_ prefix
// first, then without it.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultEnvPrefix is tried before the bare variable name.
const DefaultEnvPrefix = "CONSTELLATION_"

// maxEnvValueLength bounds a single expanded value.
const maxEnvValueLength = 4096

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// EnvConfigOptions configures environment variable processing behavior.
//
// Example usage:
//
//	options := EnvConfigOptions{
//	    Prefix:         "CONSTELLATION_",
//	    FailOnMissing:  true,
//	    ValidateValues: true,
//	}
type EnvConfigOptions struct {
	// Prefix for environment variables (e.g., "CONSTELLATION_")
	Prefix string `json:"prefix" yaml:"prefix"`

	// Whether to fail when a variable has no value and no default
	FailOnMissing bool `json:"fail_on_missing" yaml:"fail_on_missing"`

	// Whether to reject values with control characters or excessive length
	ValidateValues bool `json:"validate_values" yaml:"validate_values"`

	// Default values for undefined environment variables
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DefaultEnvConfigOptions returns the options used by LoadConfig.
func DefaultEnvConfigOptions() EnvConfigOptions {
	return EnvConfigOptions{
		Prefix:         DefaultEnvPrefix,
		FailOnMissing:  false,
		ValidateValues: true,
		Defaults:       make(map[string]string),
	}
}

// ExpandEnvironmentVariables expands ${VAR} syntax in input.
//
// Variable resolution priority:
//  1. Environment variable with the configured prefix
//  2. Environment variable without prefix
//  3. Inline default value (from ${VAR:-default} syntax)
//  4. Options.Defaults
//  5. Empty string, or an error when FailOnMissing is set
//
// Example:
//
//	expanded, err := ExpandEnvironmentVariables("endpoint: ${API_URL:-https://api.vvhan.com/api/horoscope}", options)
func ExpandEnvironmentVariables(input string, options EnvConfigOptions) (string, error) {
	if input == "" || !strings.Contains(input, "${") {
		return input, nil
	}

	var firstErr error
	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := variablePattern.FindStringSubmatch(match)
		varName := submatches[1]
		inlineDefault := ""
		if len(submatches) >= 4 {
			inlineDefault = submatches[3]
		}

		expanded, err := expandSingleEnvironmentVariable(varName, inlineDefault, options)
		if err != nil {
			firstErr = err
			return match
		}
		return expanded
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func expandSingleEnvironmentVariable(varName, inlineDefault string, options EnvConfigOptions) (string, error) {
	if options.Prefix != "" && !strings.HasPrefix(varName, options.Prefix) {
		if value := os.Getenv(options.Prefix + varName); value != "" {
			return validateAndSanitizeValue(varName, value, options)
		}
	}

	if value := os.Getenv(varName); value != "" {
		return validateAndSanitizeValue(varName, value, options)
	}

	if inlineDefault != "" {
		return validateAndSanitizeValue(varName, inlineDefault, options)
	}

	if value, exists := options.Defaults[varName]; exists {
		return validateAndSanitizeValue(varName, value, options)
	}

	if options.FailOnMissing {
		return "", NewConfigValidationError(fmt.Sprintf("required environment variable not found: %s (also tried %s%s)", varName, options.Prefix, varName), nil)
	}
	return "", nil
}

// validateAndSanitizeValue rejects values that would corrupt a YAML or
// JSON document when substituted.
func validateAndSanitizeValue(varName, value string, options EnvConfigOptions) (string, error) {
	if !options.ValidateValues {
		return value, nil
	}

	if len(value) > maxEnvValueLength {
		return "", NewConfigValidationError(fmt.Sprintf("environment variable %s too long: %d bytes (max %d)", varName, len(value), maxEnvValueLength), nil)
	}

	for i, r := range value {
		if r < 32 && r != '\t' {
			return "", NewConfigValidationError(fmt.Sprintf("environment variable %s contains control character at position %d", varName, i), nil)
		}
	}
	return value, nil
}
