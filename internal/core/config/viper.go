package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/beacon/internal/contexts"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("tracker.namespace", def.Tracker.Namespace)
	v.SetDefault("tracker.app_id", def.Tracker.AppID)
	v.SetDefault("tracker.platform", def.Tracker.Platform)
	v.SetDefault("tracker.encode_base64", def.Tracker.EncodeBase64)
	v.SetDefault("sink.db_url", "")
	v.SetDefault("sink.jsonl_dir", "")
	v.SetDefault("inspector.host", def.Inspector.Host)
	v.SetDefault("inspector.port", def.Inspector.Port)
	v.SetDefault("inspector.request_timeout", def.Inspector.RequestTimeout.String())

	// BEACON_TRACKER_APP_ID -> tracker.app_id
	v.SetEnvPrefix("BEACON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	globals, err := decodeGlobalContexts(v.Get("global_contexts"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Tracker: TrackerConfig{
			Namespace:    v.GetString("tracker.namespace"),
			AppID:        v.GetString("tracker.app_id"),
			Platform:     v.GetString("tracker.platform"),
			EncodeBase64: v.GetBool("tracker.encode_base64"),
		},
		Sink: SinkConfig{
			DBURL:    v.GetString("sink.db_url"),
			JSONLDir: v.GetString("sink.jsonl_dir"),
		},
		Inspector: InspectorConfig{
			Host:           v.GetString("inspector.host"),
			Port:           v.GetInt("inspector.port"),
			RequestTimeout: v.GetDuration("inspector.request_timeout"),
		},
		GlobalContexts: globals,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decodeGlobalContexts validates each declaration against the registry's
// shape rules. viper lowercases object keys, so an entry may also be a JSON
// string, decoded verbatim to keep the case of entity data.
func decodeGlobalContexts(raw any) ([]any, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("global_contexts must be a list, got %T", raw)
	}

	out := make([]any, 0, len(list))
	for i, item := range list {
		if s, ok := item.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, fmt.Errorf("global_contexts[%d]: %w", i, err)
			}
			item = decoded
		}
		if err := contexts.ValidateGlobalContext(item); err != nil {
			return nil, fmt.Errorf("global_contexts[%d]: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// validateConfig checks port range and a positive request timeout.
func validateConfig(cfg *Config) error {
	if cfg.Inspector.Port <= 0 || cfg.Inspector.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Inspector.Port)
	}
	if cfg.Inspector.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Inspector.RequestTimeout)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
// InConfig ignores the environment, so BEACON_INSPECTOR_SECRET itself is fine.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("inspector.secret") || v.InConfig("inspector_secret") {
		return fmt.Errorf("inspector secrets not allowed in config files (use %s environment variable)", InspectorSecretEnv)
	}
	return nil
}
