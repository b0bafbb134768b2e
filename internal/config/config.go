// Package config loads dbcopilot configuration: the LLM used for the copilot
// conversation and the workspace's backend connections.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all dbcopilot configuration.
type Config struct {
	// Workspace identifies the workspace every backend operation is scoped to.
	Workspace string `yaml:"workspace"`

	// LLM configures the conversation model.
	LLM LLMConfig `yaml:"llm"`

	// Session configures conversational state persistence.
	Session SessionConfig `yaml:"session"`

	// Connections lists the workspace's backend connections. The configured
	// kinds become the workspace capabilities the router narrows over.
	Connections []ConnectionConfig `yaml:"connections"`

	// Logging controls log verbosity.
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the conversation model.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// SessionConfig configures the sticky-kind store.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ConnectionConfig describes one backend connection. The backend-specific
// fields apply per kind: URI/Database for mongo, ProjectID for bigquery,
// DSN for postgres.
type ConnectionConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	URI       string `yaml:"uri,omitempty"`
	Database  string `yaml:"database,omitempty"`
	ProjectID string `yaml:"project_id,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Workspace: "default",
		LLM: LLMConfig{
			Model: "gemini-2.0-flash",
		},
		Session: SessionConfig{
			DatabasePath: "dbcopilot.db",
		},
	}
}

// Load reads configuration from path, layering it over defaults. A missing
// file yields the defaults. The DBCOPILOT_API_KEY environment variable
// overrides the configured LLM key.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if key := os.Getenv("DBCOPILOT_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool)
	for _, conn := range c.Connections {
		if conn.Kind == "" {
			return fmt.Errorf("connection %q has no kind", conn.Name)
		}
		switch conn.Kind {
		case "mongo", "bigquery", "postgres":
		default:
			return fmt.Errorf("connection %q has unknown kind %q", conn.Name, conn.Kind)
		}
		if seen[conn.Kind] {
			return fmt.Errorf("duplicate connection for kind %q", conn.Kind)
		}
		seen[conn.Kind] = true
	}
	return nil
}

// Capabilities returns the kinds configured in this workspace.
func (c *Config) Capabilities() []string {
	out := make([]string, 0, len(c.Connections))
	for _, conn := range c.Connections {
		out = append(out, conn.Kind)
	}
	return out
}

// Connection returns the connection of the given kind, if configured.
func (c *Config) Connection(kind string) (ConnectionConfig, bool) {
	for _, conn := range c.Connections {
		if conn.Kind == kind {
			return conn, true
		}
	}
	return ConnectionConfig{}, false
}
