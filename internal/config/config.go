// Package config loads service configuration from an optional
// taskdeck.yaml file plus TASKDECK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode
	Port string

	Storage StorageConfig
	GCP     GCPConfig
	Agent   AgentConfig
	Chat    ChatConfig
	Auth    AuthConfig
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend    string // "memory", "sqlite" or "firestore"
	SQLitePath string
}

type GCPConfig struct {
	Project  string
	Location string
}

type AgentConfig struct {
	Model   string
	UseMock bool
}

type ChatConfig struct {
	// MaxMessageChars bounds inbound user messages. Oversized messages
	// are rejected before anything is written.
	MaxMessageChars int
}

type AuthConfig struct {
	// Tokens maps bearer token -> user id. Empty in local mode enables
	// the insecure dev fallback where the token is the user id.
	Tokens map[string]string
}

// Load reads taskdeck.yaml (if present) and environment overrides and
// builds the config.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("taskdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskdeck")

	v.SetEnvPrefix("TASKDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("port", "8080")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.sqlite_path", "taskdeck.db")
	v.SetDefault("gcp.project", "")
	v.SetDefault("gcp.location", "us-central1")
	v.SetDefault("agent.model", "gemini-2.5-flash")
	v.SetDefault("agent.use_mock", false)
	v.SetDefault("chat.max_message_chars", 4000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file is fine, env and defaults cover everything.
	}

	cfg := &Config{
		Mode: Mode(v.GetString("mode")),
		Port: v.GetString("port"),

		Storage: StorageConfig{
			Backend:    v.GetString("storage.backend"),
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		GCP: GCPConfig{
			Project:  v.GetString("gcp.project"),
			Location: v.GetString("gcp.location"),
		},
		Agent: AgentConfig{
			Model:   v.GetString("agent.model"),
			UseMock: v.GetBool("agent.use_mock"),
		},
		Chat: ChatConfig{
			MaxMessageChars: v.GetInt("chat.max_message_chars"),
		},
		Auth: AuthConfig{
			Tokens: v.GetStringMapString("auth.tokens"),
		},
	}

	if cfg.Mode != ModeGCP {
		cfg.Mode = ModeLocal
	}
	if cfg.Mode == ModeLocal && !cfg.Agent.UseMock && cfg.GCP.Project == "" {
		// Local mode without GCP credentials falls back to the mock agent.
		cfg.Agent.UseMock = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mode == ModeGCP && c.GCP.Project == "" {
		return errors.New("gcp.project must be set in gcp mode")
	}
	if c.Storage.Backend == "firestore" && c.GCP.Project == "" {
		return errors.New("gcp.project is required for the firestore storage backend")
	}
	switch c.Storage.Backend {
	case "memory", "sqlite", "firestore":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Chat.MaxMessageChars <= 0 {
		return errors.New("chat.max_message_chars must be positive")
	}
	return nil
}
