// Package env reads typed configuration values from the process environment.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix is prepended to every variable name built with Key.
const Prefix = "IMGOPEN_"

// Key returns the full environment variable name for the given setting, e.g. `MAX_FILES` -> `IMGOPEN_MAX_FILES`.
func Key(name string) string {
	return Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// GetBoolEnv returns the environment value converted to boolean type, or returns the specified fallback value if the variable with the given key is not present.
func GetBoolEnv(key string, fallback bool) bool {
	if strVal, ok := LookupEnv(key); ok {
		if val, err := strconv.ParseBool(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetIntEnv returns the environment value converted to integer type, or returns the specified fallback value if the variable with the given key is not present.
func GetIntEnv(key string, fallback int) int {
	if strVal, ok := LookupEnv(key); ok {
		if val, err := strconv.Atoi(strVal); err == nil {
			return val
		}
	}

	return fallback
}

// GetStringEnv returns an environment variable by the given key, or returns the given fallback value if the env variable is not present.
func GetStringEnv(key string, fallback string) string {
	if val, ok := LookupEnv(key); ok {
		return val
	}

	return fallback
}

// GetListEnv splits a comma separated variable, dropping empty items.
func GetListEnv(key string, fallback []string) []string {
	strVal, ok := LookupEnv(key)
	if !ok {
		return fallback
	}

	var list []string

	for _, item := range strings.Split(strVal, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}

	return list
}

// LookupEnv behaves the same as `os.LookupEnv`, but additionally trims spaces in the value.
func LookupEnv(key string) (string, bool) {
	if key == "" {
		return "", false
	}

	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)

	isPresent := ok && val != ""

	return val, isPresent
}
