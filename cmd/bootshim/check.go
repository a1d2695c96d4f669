package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinayprograms/bootshim/internal/character"
	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/preflight"
	"github.com/vinayprograms/bootshim/internal/report"
)

// Run validates the environment and the character file and prints a report.
func (c *CheckCmd) Run(a *app) error {
	return c.run(context.Background(), a, env.FromOS())
}

func (c *CheckCmd) run(ctx context.Context, a *app, base env.Env) error {
	format, err := report.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	p, err := c.prepare(ctx, a, base)
	if err != nil {
		return err
	}
	p.result.Add(checkCharacter(p.cfg.Character.Path))

	r := report.New(p.result, summaryVars(p.cfg))
	if err := report.Render(a.stdout, r, format); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if c.Strict && !r.OK() {
		return &exitError{code: 1}
	}
	return nil
}

// checkCharacter parses the character file without modifying it.
func checkCharacter(path string) preflight.Finding {
	doc, err := character.Load(path)
	switch {
	case errors.Is(err, character.ErrConfigParse):
		return preflight.FindingFor("", err, "fix the JSON; run leaves the file unchanged until then")
	case err != nil:
		return preflight.Finding{Severity: preflight.SeverityWarn, Message: err.Error()}
	}
	msg := fmt.Sprintf("character %q parsed from %s", doc.Name(), path)
	if plugins := doc.Plugins(); len(plugins) > 0 {
		msg += fmt.Sprintf(" (%d plugins)", len(plugins))
	}
	return preflight.Finding{Severity: preflight.SeverityOK, Message: msg}
}
