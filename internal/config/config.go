// Package config provides configuration helpers for go-proctor commands.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/candidwatch/go-proctor/internal/log"
)

// LoadEnv loads a .env file if one exists next to the binary.
// Missing files are fine; real environment variables always win.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env file")
	}
}

// GetString returns the env var or the fallback if not set.
func GetString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt returns the env var parsed as int or the fallback.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn("invalid integer env var, using fallback", "key", key, "value", v)
		return fallback
	}
	return n
}

// GetBool returns the env var parsed as bool or the fallback.
func GetBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn("invalid boolean env var, using fallback", "key", key, "value", v)
		return fallback
	}
	return b
}

// GetDuration returns the env var parsed as a duration or the fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn("invalid duration env var, using fallback", "key", key, "value", v)
		return fallback
	}
	return d
}
