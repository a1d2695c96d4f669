// Package main defines the CLI structure using kong.
package main

import (
	"time"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" default:"withargs" help:"Validate the environment, patch the character and start the runtime"`
	Check   CheckCmd   `cmd:"" help:"Validate the environment and print a report"`
	Keys    KeysCmd    `cmd:"" help:"Solana key utilities"`
	AgentID AgentIDCmd `cmd:"" name:"agent-id" help:"Find the agent id of a running server"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// PipelineFlags are shared by run and check.
type PipelineFlags struct {
	Character string   `help:"Character JSON path (overrides config)"`
	Config    string   `help:"Config file path"`
	EnvFile   []string `name:"env-file" default:".env" help:"Dotenv file to load (repeatable)"`
	KeyFormat string   `name:"key-format" help:"Exported private key form: 32 or 64"`
	Port      string   `help:"Port for the runtime server"`
	LogLevel  string   `name:"log-level" help:"Log level (debug, info, warn, error)"`
}

// RunCmd runs the full boot pipeline and launches the runtime.
type RunCmd struct {
	PipelineFlags `embed:""`

	Command string `help:"Runtime program (skips PATH probing)"`
	DryRun  bool   `name:"dry-run" help:"Resolve everything but do not launch"`
	NoPatch bool   `name:"no-patch" help:"Do not rewrite the character file"`
}

// CheckCmd validates the environment without patching or launching.
type CheckCmd struct {
	PipelineFlags `embed:""`

	Format string `short:"o" default:"text" enum:"text,json,yaml" help:"Report format (text, json, yaml)"`
	Strict bool   `help:"Exit non-zero when any error finding is reported"`
}

// KeysCmd groups the key utilities.
type KeysCmd struct {
	Verify  KeysVerifyCmd  `cmd:"" help:"Check that a private key matches a public key"`
	Extract KeysExtractCmd `cmd:"" help:"Print the 32-byte seed of a private key"`
	Convert KeysConvertCmd `cmd:"" help:"Convert a private key between formats"`
	Derive  KeysDeriveCmd  `cmd:"" help:"Print the public key of a private key"`
}

// KeysVerifyCmd compares a private key against a public key.
type KeysVerifyCmd struct {
	Key    string `arg:"" optional:"" help:"Base58 private key, or - for stdin (default: $SOLANA_PRIVATE_KEY)"`
	Public string `help:"Expected public key (default: $SOLANA_PUBLIC_KEY)"`
}

// KeysExtractCmd prints the seed form of a key.
type KeysExtractCmd struct {
	Key string `arg:"" optional:"" help:"Base58 private key, or - for stdin (default: $SOLANA_PRIVATE_KEY)"`
}

// KeysConvertCmd converts between base58 and byte-array keys.
type KeysConvertCmd struct {
	Key     string `arg:"" optional:"" help:"Base58 key or JSON byte array, or - for stdin (default: $SOLANA_PRIVATE_KEY)"`
	To      string `default:"32" enum:"32,64,bytes" help:"Output form (32, 64, bytes)"`
	EnvLine bool   `name:"env-line" help:"Print as SOLANA_PRIVATE_KEY=... for pasting into a deployment"`
}

// KeysDeriveCmd prints the public key of a private key.
type KeysDeriveCmd struct {
	Key string `arg:"" optional:"" help:"Base58 private key, or - for stdin (default: $SOLANA_PRIVATE_KEY)"`
}

// AgentIDCmd probes a running server for its agent id.
type AgentIDCmd struct {
	URL     string        `help:"Server URL (default: $ELIZAOS_URL, then $NEXT_PUBLIC_ELIZAOS_URL)"`
	Timeout time.Duration `default:"10s" help:"Per-request timeout"`
	Quiet   bool          `short:"q" help:"Print only the id"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
