// Package config provides configuration management for beacon commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// InspectorSecretEnv names the environment variable holding the inspector API secret.
const InspectorSecretEnv = "BEACON_INSPECTOR_SECRET"

// Config is the full beacon configuration.
type Config struct {
	Tracker   TrackerConfig
	Sink      SinkConfig
	Inspector InspectorConfig

	// GlobalContexts holds decoded global context declarations, registered
	// with the tracker at startup.
	GlobalContexts []any
}

// TrackerConfig holds the persistent fields written into every payload.
type TrackerConfig struct {
	Namespace    string
	AppID        string
	Platform     string
	EncodeBase64 bool
}

// SinkConfig selects where built payloads are written. Empty values disable a sink.
type SinkConfig struct {
	DBURL    string
	JSONLDir string
}

// InspectorConfig holds configuration for the gRPC inspector API.
type InspectorConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Platform:     "srv",
			EncodeBase64: true,
		},
		Inspector: InspectorConfig{
			Host:           "127.0.0.1",
			Port:           50061,
			RequestTimeout: 10 * time.Second,
		},
	}
}

// InspectorSecret reads the inspector secret from BEACON_INSPECTOR_SECRET.
// Returns nil without error when the variable is unset.
func InspectorSecret() ([]byte, error) {
	val := os.Getenv(InspectorSecretEnv)
	if val == "" {
		return nil, nil
	}
	secret, err := ParseHMACSecret(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", InspectorSecretEnv, err)
	}
	return secret, nil
}

// ParseHMACSecret decodes a base64-encoded secret of at least 32 bytes.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}
