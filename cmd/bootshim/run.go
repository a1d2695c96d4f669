package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinayprograms/bootshim/internal/character"
	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/launcher"
	"github.com/vinayprograms/bootshim/internal/preflight"
)

// Run executes the boot pipeline: env, preflight, patch, launch.
func (c *RunCmd) Run(a *app) error {
	return c.run(context.Background(), a, env.FromOS(), nil)
}

func (c *RunCmd) run(ctx context.Context, a *app, base env.Env, lookPath launcher.LookPathFunc) error {
	p, err := c.prepare(ctx, a, base)
	if err != nil {
		return err
	}
	if c.NoPatch {
		p.cfg.Character.Patch = false
	}
	patchCharacter(ctx, p)

	command := c.Command
	if command == "" {
		command = p.cfg.Runtime.Command
	}
	strategy := launcher.Negotiate(launcher.Options{
		Command:       command,
		Args:          p.cfg.RuntimeArgs(),
		Flag:          p.cfg.Runtime.Flag,
		CharacterPath: p.cfg.Character.Path,
	}, lookPath)

	logger := p.logger.WithComponent("launcher")
	logger.Info("strategy", map[string]interface{}{"kind": strategy.Kind.String()})
	if c.DryRun {
		fmt.Fprintln(a.stdout, strategy.String())
		return nil
	}
	if strategy.Kind == launcher.NotFound {
		logger.Error("runtime not found", map[string]interface{}{
			"hint": "install " + launcher.RuntimeBinary + " or make npx available, or set --command",
		})
	}

	var code int
	err = stage(ctx, logger, "launch", p.runID, func(ctx context.Context) error {
		var runErr error
		code, runErr = launcher.Run(ctx, launcher.Params{
			Strategy: strategy,
			Env:      p.result.Env,
			Stdin:    a.stdin,
			Stdout:   a.stdout,
			Stderr:   a.stderr,
			Logger:   logger,
		})
		return runErr
	})
	if err != nil {
		return &exitError{code: code, err: err}
	}
	return nil
}

// patchCharacter merges resolved values into the character file. Failures are
// recorded as findings and the runtime still starts.
func patchCharacter(ctx context.Context, p *prepared) {
	logger := p.logger.WithComponent("character")
	path := p.cfg.Character.Path
	if !p.cfg.Character.Patch {
		logger.Info("patch_skipped", map[string]interface{}{"path": path})
		return
	}

	_ = stage(ctx, logger, "patch", p.runID, func(context.Context) error {
		res, written, err := character.Apply(path, p.result.Values, character.Options{
			PluginSecrets: p.cfg.PluginSecrets(),
			WalletBio:     p.cfg.Character.WalletBio,
			WalletMarker:  p.cfg.Character.WalletMarker,
		})
		if err != nil {
			f := preflight.FindingFor("", err, "the runtime starts with the character file unchanged")
			if f.Code != preflight.ConfigParseError {
				f.Severity = preflight.SeverityWarn
			}
			p.result.Add(f)
			logger.Finding(string(f.Severity), string(f.Code), f.Var, f.Message)
			return err
		}

		for _, w := range res.Warnings {
			logger.Warn(w, map[string]interface{}{"path": path})
		}
		if len(res.Skipped) > 0 {
			logger.Info("secrets_withheld", map[string]interface{}{"vars": strings.Join(res.Skipped, ",")})
		}
		msg := "character_unchanged"
		if written {
			msg = "character_patched"
		}
		logger.Info(msg, map[string]interface{}{"path": path, "fields": len(res.Fields)})
		return nil
	})
}
