// Package env holds the process environment as an explicit value that is
// threaded through the boot pipeline instead of mutating os.Environ.
package env

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Env is a snapshot of environment variables. Stages never modify an Env
// they receive; they return an updated copy.
type Env map[string]string

// DefaultAllowList lists the variables whose values are sanitized before use.
var DefaultAllowList = []string{
	"OPENAI_API_KEY",
	"OPENAI_API_BASE_URL",
	"OPENAI_BASE_URL",
	"OPENAI_MODEL",
	"SOLANA_RPC_URL",
	"SOLANA_PUBLIC_KEY",
	"SOLANA_PRIVATE_KEY",
	"HELIUS_API_KEY",
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
}

// FromOS snapshots the current process environment.
func FromOS() Env {
	return FromPairs(os.Environ())
}

// FromPairs builds an Env from KEY=VALUE strings. Entries without '=' are ignored.
func FromPairs(pairs []string) Env {
	e := make(Env, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		e[k] = v
	}
	return e
}

// LoadDotenv merges variables from .env files into a copy of e.
// Variables already present in e win. Missing files are skipped.
func LoadDotenv(e Env, paths ...string) (Env, []string, error) {
	out := e.Clone()
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return e, loaded, err
		}
		for k, v := range vars {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
		loaded = append(loaded, path)
	}
	return out, loaded, nil
}

// Clone returns an independent copy.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Get returns the value of name, or "" when unset.
func (e Env) Get(name string) string {
	return e[name]
}

// Lookup reports whether name is set to a non-empty value.
func (e Env) Lookup(name string) (string, bool) {
	v, ok := e[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// With returns a copy of e with name set to value.
func (e Env) With(name, value string) Env {
	out := e.Clone()
	out[name] = value
	return out
}

// Names returns the variable names in sorted order.
func (e Env) Names() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Pairs renders e as sorted KEY=VALUE strings suitable for exec.Cmd.Env.
func (e Env) Pairs() []string {
	names := e.Names()
	pairs := make([]string, 0, len(names))
	for _, k := range names {
		pairs = append(pairs, k+"="+e[k])
	}
	return pairs
}

// Bool interprets common truthy spellings.
func Bool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on", "y":
		return true
	}
	return false
}

// Mask hides most of a secret for display.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) > 20 {
		return value[:10] + "..." + value[len(value)-4:]
	}
	if len(value) > 4 {
		return value[:4] + "***"
	}
	return "***"
}
