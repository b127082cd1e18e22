package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the bridge.
type Config struct {
	General  GeneralConfig  `json:"general"`
	HTTP     HTTPConfig     `json:"http"`
	Store    StoreConfig    `json:"store"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	// OperatorPhone overrides the operator identifier derived from the
	// logged-in session. Normally left empty.
	OperatorPhone string `json:"operatorPhone,omitempty"`
	// QueueSize is the inbound event queue buffer.
	QueueSize int `json:"queueSize"`
}

type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StoreConfig selects and configures the message-log backend. The two
// drivers are interchangeable implementations of the same adapter.
type StoreConfig struct {
	Driver          string `json:"driver"` // "sqlite" | "mongo"
	SQLitePath      string `json:"sqlitePath"`
	MongoURI        string `json:"mongoUri,omitempty"`
	MongoDatabase   string `json:"mongoDatabase,omitempty"`
	MongoCollection string `json:"mongoCollection,omitempty"`
}

type WhatsAppConfig struct {
	// SessionPath is the whatsmeow device store (SQLite file).
	SessionPath string `json:"sessionPath"`
	// TerminalQR also renders pairing codes on stderr.
	TerminalQR bool `json:"terminalQr"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.zapbridge).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zapbridge"
	}
	return filepath.Join(home, ".zapbridge")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.SQLitePath = ExpandPath(cfg.Store.SQLitePath)
	cfg.WhatsApp.SessionPath = ExpandPath(cfg.WhatsApp.SessionPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be between 0 and 65535")
	}
	if cfg.General.QueueSize < 1 {
		errs = append(errs, "general.queueSize must be >= 1")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlitePath is required for the sqlite driver")
		}
	case "mongo":
		if cfg.Store.MongoURI == "" {
			errs = append(errs, "store.mongoUri is required for the mongo driver")
		}
		if cfg.Store.MongoDatabase == "" {
			errs = append(errs, "store.mongoDatabase is required for the mongo driver")
		}
	default:
		errs = append(errs, "store.driver must be one of: sqlite, mongo")
	}

	if cfg.WhatsApp.SessionPath == "" {
		errs = append(errs, "whatsapp.sessionPath is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
