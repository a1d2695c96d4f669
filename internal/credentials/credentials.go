// Package credentials loads secrets from a credentials.toml file as a
// fallback for variables missing from the environment.
package credentials

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/bootshim/internal/env"
)

// Credentials holds secrets loaded from credentials.toml
type Credentials struct {
	OpenAI  *OpenAICreds  `toml:"openai"`
	Solana  *SolanaCreds  `toml:"solana"`
	Helius  *HeliusCreds  `toml:"helius"`
	Twitter *TwitterCreds `toml:"twitter"`
}

// OpenAICreds holds the model backend settings (OpenAI-compatible, including Grok).
type OpenAICreds struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// SolanaCreds holds the wallet settings.
type SolanaCreds struct {
	RPCURL     string `toml:"rpc_url"`
	PublicKey  string `toml:"public_key"`
	PrivateKey string `toml:"private_key"`
}

// HeliusCreds holds the Helius RPC key.
type HeliusCreds struct {
	APIKey string `toml:"api_key"`
}

// TwitterCreds holds the social platform credentials.
type TwitterCreds struct {
	APIKey            string `toml:"api_key"`
	APISecretKey      string `toml:"api_secret_key"`
	AccessToken       string `toml:"access_token"`
	AccessTokenSecret string `toml:"access_token_secret"`
	BearerToken       string `toml:"bearer_token"`
}

// StandardPaths returns the standard credential file locations in order of priority
func StandardPaths() []string {
	paths := []string{"credentials.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bootshim", "credentials.toml"))
	}
	return paths
}

// Load loads credentials from the first available standard location
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil // No credentials file found (not an error)
}

// LoadFile loads credentials from a specific file
func LoadFile(path string) (*Credentials, error) {
	var creds Credentials
	if _, err := toml.DecodeFile(path, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Vars flattens the credentials into environment variable names.
func (c *Credentials) Vars() map[string]string {
	vars := map[string]string{}
	if c == nil {
		return vars
	}
	if c.OpenAI != nil {
		vars["OPENAI_API_KEY"] = c.OpenAI.APIKey
		vars["OPENAI_API_BASE_URL"] = c.OpenAI.BaseURL
		vars["OPENAI_MODEL"] = c.OpenAI.Model
	}
	if c.Solana != nil {
		vars["SOLANA_RPC_URL"] = c.Solana.RPCURL
		vars["SOLANA_PUBLIC_KEY"] = c.Solana.PublicKey
		vars["SOLANA_PRIVATE_KEY"] = c.Solana.PrivateKey
	}
	if c.Helius != nil {
		vars["HELIUS_API_KEY"] = c.Helius.APIKey
	}
	if c.Twitter != nil {
		vars["TWITTER_API_KEY"] = c.Twitter.APIKey
		vars["TWITTER_API_SECRET_KEY"] = c.Twitter.APISecretKey
		vars["TWITTER_ACCESS_TOKEN"] = c.Twitter.AccessToken
		vars["TWITTER_ACCESS_TOKEN_SECRET"] = c.Twitter.AccessTokenSecret
		vars["TWITTER_BEARER_TOKEN"] = c.Twitter.BearerToken
	}
	for k, v := range vars {
		if v == "" {
			delete(vars, k)
		}
	}
	return vars
}

// Apply returns a copy of e with credentials filled in where the variable is
// unset or empty, and the names that were filled.
func (c *Credentials) Apply(e env.Env) (env.Env, []string) {
	out := e.Clone()
	var applied []string
	for k, v := range c.Vars() {
		if _, ok := out.Lookup(k); ok {
			continue
		}
		out[k] = v
		applied = append(applied, k)
	}
	return out, applied
}
