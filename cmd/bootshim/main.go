// Package main is the entry point for bootshim, the boot wrapper that
// prepares an ElizaOS deployment and hands the process over to the runtime.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vinayprograms/bootshim/internal/logging"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// app carries the process streams into command handlers.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *logging.Logger
}

func newApp() *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logging.New(),
	}
}

// exitError ends the process with a specific code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bootshim"),
		kong.Description("Prepare an ElizaOS deployment and start the runtime."),
		kong.UsageOnError(),
		kongVars(),
	)

	a := newApp()
	err := ctx.Run(a)
	os.Exit(exitStatus(a, err))
}

func exitStatus(a *app, err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(a.stderr, "error: %v\n", err)
	return 1
}

// Run prints version information.
func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.stdout, "bootshim version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
