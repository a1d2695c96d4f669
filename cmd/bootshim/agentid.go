package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vinayprograms/bootshim/internal/agentid"
	"github.com/vinayprograms/bootshim/internal/env"
)

// Run probes the server and prints the agent id.
func (c *AgentIDCmd) Run(a *app) error {
	e, _, err := env.LoadDotenv(env.FromOS(), ".env")
	if err != nil {
		a.logger.Warn("dotenv_failed", map[string]interface{}{"error": err.Error()})
		e = env.FromOS()
	}
	return c.run(context.Background(), a, agentid.ResolveURL(e, c.URL), nil)
}

func (c *AgentIDCmd) run(ctx context.Context, a *app, url string, client *http.Client) error {
	logger := a.logger.WithComponent("agentid")
	res, err := agentid.New(client, c.Timeout).Probe(ctx, url)
	if errors.Is(err, agentid.ErrNoURL) {
		return err
	}

	for _, at := range res.Attempts {
		fields := map[string]interface{}{"path": at.Path, "status": at.Status}
		if at.Err != nil {
			fields["error"] = at.Err.Error()
		}
		logger.Debug("probe", fields)
	}

	if c.Quiet {
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return &exitError{code: 1, err: err}
		}
		fmt.Fprintln(a.stdout, res.ID)
		return nil
	}

	fmt.Fprintf(a.stdout, "Server:  %s\n", res.BaseURL)
	if res.Healthy {
		fmt.Fprintln(a.stdout, "Health:  ok")
	} else {
		fmt.Fprintf(a.stdout, "Health:  unavailable (status %d)\n", res.HealthStatus)
	}
	if err != nil {
		fmt.Fprintf(a.stdout, "Agent:   not found after %d requests\n", len(res.Attempts))
		return &exitError{code: 1, err: err}
	}
	kind := "not a UUID"
	if res.IsUUID {
		kind = "UUID"
	}
	fmt.Fprintf(a.stdout, "Agent:   %s (%s, from %s)\n", res.ID, kind, res.Endpoint)
	return nil
}
