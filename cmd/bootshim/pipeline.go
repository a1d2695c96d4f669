package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/vinayprograms/bootshim/internal/config"
	"github.com/vinayprograms/bootshim/internal/credentials"
	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/logging"
	"github.com/vinayprograms/bootshim/internal/preflight"
)

// prepared is the resolved state shared by run and check.
type prepared struct {
	runID  string
	cfg    *config.Config
	result preflight.Result
	logger *logging.Logger
}

// prepare loads config, layers the environment and runs preflight.
// Environment precedence: process env, then dotenv files, then credentials.toml.
// Flags override both config and environment. Dotenv files are read before
// the config so BOOTSHIM_CONFIG and ELIZA_CHARACTER_PATH may come from them.
func (f *PipelineFlags) prepare(ctx context.Context, a *app, base env.Env) (*prepared, error) {
	p := &prepared{runID: uuid.New().String()}

	e := base
	if f.KeyFormat != "" {
		e = e.With(preflight.VarKeyFormat, f.KeyFormat)
	}
	if f.Port != "" {
		e = e.With(preflight.VarPort, f.Port)
	}
	withDotenv, loaded, dotenvErr := env.LoadDotenv(e, f.EnvFile...)
	if dotenvErr == nil {
		e = withDotenv
	}
	getenv := func(name string) string { return env.SanitizeValue(e.Get(name)) }

	cfg, cfgPath, err := config.Load(f.Config, getenv)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	f.applyOverrides(cfg, getenv)
	p.cfg = cfg

	logger := a.logger.WithTraceID(p.runID)
	logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
	p.logger = logger
	if cfgPath != "" {
		logger.Info("config_loaded", map[string]interface{}{"path": cfgPath})
	}

	envLog := logger.WithComponent("env")
	_ = stage(ctx, envLog, "env", p.runID, func(context.Context) error {
		if dotenvErr != nil {
			envLog.Warn("dotenv_failed", map[string]interface{}{"error": dotenvErr.Error()})
		}
		for _, path := range loaded {
			envLog.Info("dotenv_loaded", map[string]interface{}{"path": path})
		}

		creds, credPath, err := credentials.Load()
		if err != nil {
			envLog.Warn("credentials_failed", map[string]interface{}{"path": credPath, "error": err.Error()})
			return nil
		}
		if creds != nil {
			var applied []string
			e, applied = creds.Apply(e)
			sort.Strings(applied)
			envLog.Info("credentials_loaded", map[string]interface{}{"path": credPath, "vars": strings.Join(applied, ",")})
		}
		return nil
	})

	pfLog := logger.WithComponent("preflight")
	_ = stage(ctx, pfLog, "preflight", p.runID, func(context.Context) error {
		p.result = preflight.Run(e, cfg)
		for _, fd := range p.result.Findings {
			pfLog.Finding(string(fd.Severity), string(fd.Code), fd.Var, fd.Message)
		}
		return nil
	})
	return p, nil
}

// applyOverrides layers flags and environment over cfg. The character path
// resolves flag, then ELIZA_CHARACTER_PATH, then config.
func (f *PipelineFlags) applyOverrides(cfg *config.Config, getenv func(string) string) {
	switch {
	case f.Character != "":
		cfg.Character.Path = f.Character
	case getenv(preflight.VarCharacterPath) != "":
		cfg.Character.Path = getenv(preflight.VarCharacterPath)
	}
	if f.KeyFormat != "" {
		cfg.Keys.Format = f.KeyFormat
	}
	if f.Port != "" {
		cfg.Server.Port = f.Port
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
}

// summaryVars lists the variables shown in reports.
func summaryVars(cfg *config.Config) []string {
	seen := map[string]bool{}
	var names []string
	add := func(list ...string) {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	add(cfg.Vars.Required...)
	add(preflight.VarBaseURLAlias, preflight.VarModel)
	add(cfg.Vars.Optional...)
	add(preflight.VarPort, preflight.VarElizaPort, preflight.VarCharacterPath)
	return names
}
