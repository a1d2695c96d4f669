// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the current directory.
const DefaultFile = "bootshim.toml"

// GrokBaseURL is assigned when a Grok key is configured without a base URL.
const GrokBaseURL = "https://api.x.ai/v1"

// Config represents the shim configuration.
type Config struct {
	Character CharacterConfig     `toml:"character"`
	Runtime   RuntimeConfig       `toml:"runtime"`
	Server    ServerConfig        `toml:"server"`
	Keys      KeysConfig          `toml:"keys"`
	Vars      VarsConfig          `toml:"vars"`
	Plugins   map[string][]string `toml:"plugins"` // Plugin identifier -> secret names it owns
	Log       LogConfig           `toml:"log"`
}

// CharacterConfig locates the character file and controls patching.
type CharacterConfig struct {
	Path         string `toml:"path"`
	Patch        bool   `toml:"patch"`         // Rewrite the file with resolved values
	WalletBio    string `toml:"wallet_bio"`    // fmt template with one %s for the address
	WalletMarker string `toml:"wallet_marker"` // Substring identifying the wallet bio line
}

// RuntimeConfig controls how the external runtime is started.
type RuntimeConfig struct {
	Command string   `toml:"command"` // Explicit binary; empty = negotiate
	Args    []string `toml:"args"`    // Arguments placed before the character flag
	Flag    string   `toml:"flag"`    // Flag that precedes the character path
}

// ServerConfig holds the port handed to the runtime.
type ServerConfig struct {
	Port string `toml:"port"`
}

// KeysConfig controls Solana key normalization.
type KeysConfig struct {
	Format string `toml:"format"` // "32" (seed, default) or "64" (seed+public)
}

// VarsConfig lists variables checked by preflight.
type VarsConfig struct {
	Required []string `toml:"required"`
	Optional []string `toml:"optional"`
	Sanitize []string `toml:"sanitize"` // Overrides the built-in allow-list when set
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultPlugins maps known plugins to the secrets they consume.
var DefaultPlugins = map[string][]string{
	"@elizaos/plugin-solana": {
		"SOLANA_PRIVATE_KEY",
		"SOLANA_PUBLIC_KEY",
		"SOLANA_RPC_URL",
		"HELIUS_API_KEY",
	},
	"@elizaos/plugin-twitter": {
		"TWITTER_API_KEY",
		"TWITTER_API_SECRET_KEY",
		"TWITTER_ACCESS_TOKEN",
		"TWITTER_ACCESS_TOKEN_SECRET",
		"TWITTER_BEARER_TOKEN",
		"X_API_KEY",
		"X_API_SECRET",
		"X_ACCESS_TOKEN",
		"X_ACCESS_SECRET",
		"X_BEARER_TOKEN",
	},
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Character: CharacterConfig{
			Path:         filepath.Join("characters", "agent.json"),
			Patch:        true,
			WalletBio:    "My Solana wallet address is %s.",
			WalletMarker: "Solana wallet address",
		},
		Runtime: RuntimeConfig{
			Flag: "--character",
		},
		Server: ServerConfig{
			Port: "3000",
		},
		Keys: KeysConfig{
			Format: "32",
		},
		Vars: VarsConfig{
			Required: []string{
				"OPENAI_API_KEY",
				"OPENAI_API_BASE_URL",
				"SOLANA_RPC_URL",
				"SOLANA_PUBLIC_KEY",
				"SOLANA_PRIVATE_KEY",
			},
			Optional: []string{
				"TWITTER_API_KEY",
				"TWITTER_API_SECRET_KEY",
				"HELIUS_API_KEY",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// EnvConfig names the variable that points at a config file.
const EnvConfig = "BOOTSHIM_CONFIG"

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load resolves the config file: explicit path, then BOOTSHIM_CONFIG as
// returned by getenv, then bootshim.toml in the current directory. With no
// file found, defaults are returned. An explicit path that does not exist is
// an error. A nil getenv means os.Getenv.
func Load(path string, getenv func(string) string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if p := getenv(EnvConfig); p != "" {
		cfg, err := LoadFile(p)
		return cfg, p, err
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		cfg, err := LoadFile(DefaultFile)
		return cfg, DefaultFile, err
	}
	return New(), "", nil
}

// PluginSecrets returns the configured plugin mapping, or DefaultPlugins.
func (c *Config) PluginSecrets() map[string][]string {
	if len(c.Plugins) > 0 {
		return c.Plugins
	}
	return DefaultPlugins
}

// RuntimeArgs returns the arguments placed before the character path.
func (c *Config) RuntimeArgs() []string {
	if len(c.Runtime.Args) > 0 {
		return c.Runtime.Args
	}
	return []string{"start"}
}
