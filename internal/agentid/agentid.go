// Package agentid discovers the id of the agent served by a running runtime
// by probing its HTTP API.
package agentid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vinayprograms/bootshim/internal/env"
)

// HealthPath is checked before the agent endpoints.
const HealthPath = "/healthz"

// Endpoints are tried in order until one yields an id.
var Endpoints = []string{
	"/api/agents",
	"/api/v1/agents",
	"/agents",
	"/api/agent",
	"/health",
	"/healthz",
}

// URL variables, in order of precedence.
const (
	VarURL       = "ELIZAOS_URL"
	VarPublicURL = "NEXT_PUBLIC_ELIZAOS_URL"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

var (
	ErrNoURL     = errors.New("no server URL (set " + VarURL + " or pass --url)")
	ErrNoAgentID = errors.New("no agent id found")
)

// Attempt records one request.
type Attempt struct {
	Path   string
	Status int
	Err    error
}

// Result is the outcome of a probe.
type Result struct {
	BaseURL      string
	Healthy      bool
	HealthStatus int
	ID           string
	Endpoint     string
	IsUUID       bool
	Attempts     []Attempt
}

// Prober queries a runtime's HTTP API.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a prober. A nil client gets a traced default transport.
func New(client *http.Client, timeout time.Duration) *Prober {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{client: client, timeout: timeout}
}

// ResolveURL picks the server URL: the flag, then ELIZAOS_URL, then
// NEXT_PUBLIC_ELIZAOS_URL.
func ResolveURL(e env.Env, flag string) string {
	for _, v := range []string{flag, e.Get(VarURL), e.Get(VarPublicURL)} {
		if v = strings.TrimSpace(v); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return ""
}

// Probe checks health, then walks Endpoints until one returns an id.
// A failed health check is recorded but does not stop the probe.
func (p *Prober) Probe(ctx context.Context, baseURL string) (*Result, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoURL
	}
	res := &Result{BaseURL: baseURL}

	status, _, err := p.get(ctx, baseURL+HealthPath)
	res.Attempts = append(res.Attempts, Attempt{Path: HealthPath, Status: status, Err: err})
	res.HealthStatus = status
	res.Healthy = err == nil && status == http.StatusOK

	for _, path := range Endpoints {
		status, body, err := p.get(ctx, baseURL+path)
		res.Attempts = append(res.Attempts, Attempt{Path: path, Status: status, Err: err})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			continue
		}
		if status != http.StatusOK {
			continue
		}
		if id := ExtractID(body); id != "" {
			res.ID = id
			res.Endpoint = path
			res.IsUUID = IsUUID(id)
			return res, nil
		}
	}
	return res, ErrNoAgentID
}

func (p *Prober) get(ctx context.Context, url string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// ExtractID finds the first agent id in a response body. It understands
// {success, data: {agents: [...]}}, {agents: [...]}, a bare array and a
// bare agent object.
func ExtractID(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	doc := gjson.ParseBytes(body)

	switch {
	case doc.Get("success").Bool() && doc.Get("data.agents").IsArray():
		return firstField(doc.Get("data.agents.0"), "id", "entityId", "agentId")
	case doc.Get("agents").IsArray():
		return firstField(doc.Get("agents.0"), "id", "entityId", "agentId")
	case doc.IsArray():
		return firstField(doc.Get("0"), "id", "entityId", "agentId", "_id")
	case doc.IsObject():
		return firstField(doc, "id", "entityId", "agentId", "_id")
	}
	return ""
}

func firstField(obj gjson.Result, fields ...string) string {
	if !obj.IsObject() {
		return ""
	}
	for _, f := range fields {
		v := obj.Get(f)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// IsUUID reports whether id parses as a UUID.
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
