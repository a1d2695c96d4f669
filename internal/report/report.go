// Package report renders preflight findings and the resolved variable
// summary for operators (text) and for CI (json, yaml).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/preflight"
)

// Format selects the rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// hintWidth is the wrap column for hints in text output.
const hintWidth = 72

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return FormatText, fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
}

// Variable is one line of the resolved-variable summary. Secret values are masked.
type Variable struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
	Set    bool   `json:"set" yaml:"set"`
	Masked bool   `json:"masked,omitempty" yaml:"masked,omitempty"`
}

// Key describes the normalized Solana key without revealing it.
type Key struct {
	Encoding  string `json:"encoding" yaml:"encoding"`
	PublicKey string `json:"publicKey" yaml:"publicKey"`
	Format    int    `json:"format" yaml:"format"`
	Mismatch  bool   `json:"mismatch,omitempty" yaml:"mismatch,omitempty"`
}

// Summary counts findings by severity.
type Summary struct {
	OK    int `json:"ok" yaml:"ok"`
	Info  int `json:"info" yaml:"info"`
	Warn  int `json:"warn" yaml:"warn"`
	Error int `json:"error" yaml:"error"`
}

// Report is the renderable view of a preflight result.
type Report struct {
	Findings  []preflight.Finding `json:"findings" yaml:"findings"`
	Variables []Variable          `json:"variables" yaml:"variables"`
	Key       *Key                `json:"key,omitempty" yaml:"key,omitempty"`
	Summary   Summary             `json:"summary" yaml:"summary"`
}

// New builds a report from res, summarizing the variables in names.
func New(res preflight.Result, names []string) *Report {
	r := &Report{
		Findings: res.Findings,
		Summary: Summary{
			OK:    res.Count(preflight.SeverityOK),
			Info:  res.Count(preflight.SeverityInfo),
			Warn:  res.Count(preflight.SeverityWarn),
			Error: res.Count(preflight.SeverityError),
		},
	}
	if r.Findings == nil {
		r.Findings = []preflight.Finding{}
	}
	for _, name := range names {
		v := Variable{Name: name}
		if val, ok := res.Env.Lookup(name); ok {
			v.Set = true
			v.Value = val
			if IsSecret(name) {
				v.Value = env.Mask(val)
				v.Masked = true
			}
		}
		r.Variables = append(r.Variables, v)
	}
	if res.Key != nil {
		r.Key = &Key{
			Encoding:  res.Key.Encoding.String(),
			PublicKey: res.Key.PublicKey,
			Format:    int(res.KeyFormat),
			Mismatch:  res.Key.Mismatch,
		}
	}
	return r
}

// IsSecret reports whether a variable's value must be masked for display.
func IsSecret(name string) bool {
	n := strings.ToUpper(name)
	if strings.HasSuffix(n, "_PUBLIC_KEY") {
		return false
	}
	for _, marker := range []string{"KEY", "SECRET", "TOKEN", "PASSWORD", "RPC_URL"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

// OK reports whether the run has no error findings.
func (r *Report) OK() bool {
	return r.Summary.Error == 0
}

// Render writes r to w in format f.
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, r.Text())
		return err
	}
	return fmt.Errorf("unknown report format %q", f)
}

// Text renders the human-readable form.
func (r *Report) Text() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Environment check") + "\n")
	b.WriteString(divider + "\n")
	for _, f := range r.Findings {
		b.WriteString(findingLine(f) + "\n")
		if f.Hint != "" {
			hint := indent.String(wordwrap.String(f.Hint, hintWidth), 6)
			b.WriteString(dimStyle.Render(hint) + "\n")
		}
	}

	if len(r.Variables) > 0 {
		b.WriteString("\n" + titleStyle.Render("Resolved variables") + "\n")
		b.WriteString(divider + "\n")
		width := 0
		for _, v := range r.Variables {
			width = max(width, len(v.Name))
		}
		for _, v := range r.Variables {
			name := labelStyle.Render(fmt.Sprintf("%-*s", width, v.Name))
			value := dimStyle.Render("(not set)")
			if v.Set {
				value = v.Value
			}
			fmt.Fprintf(&b, "  %s  %s\n", name, value)
		}
	}

	if r.Key != nil {
		b.WriteString("\n" + titleStyle.Render("Solana key") + "\n")
		b.WriteString(divider + "\n")
		fmt.Fprintf(&b, "  %s  %s\n", labelStyle.Render("encoding  "), r.Key.Encoding)
		fmt.Fprintf(&b, "  %s  %s\n", labelStyle.Render("public key"), r.Key.PublicKey)
		fmt.Fprintf(&b, "  %s  %d bytes\n", labelStyle.Render("exported  "), r.Key.Format)
	}

	b.WriteString("\n" + r.summaryLine() + "\n")
	return b.String()
}

func (r *Report) summaryLine() string {
	s := r.Summary
	line := fmt.Sprintf("%d ok, %d info, %d warnings, %d errors", s.OK, s.Info, s.Warn, s.Error)
	switch {
	case s.Error > 0:
		return errorStyle.Render("✗ " + line)
	case s.Warn > 0:
		return warnStyle.Render("⚠ " + line)
	}
	return okStyle.Render("✓ " + line)
}

func findingLine(f preflight.Finding) string {
	var mark string
	switch f.Severity {
	case preflight.SeverityOK:
		mark = okStyle.Render("✓")
	case preflight.SeverityInfo:
		mark = infoStyle.Render("ℹ")
	case preflight.SeverityWarn:
		mark = warnStyle.Render("⚠")
	default:
		mark = errorStyle.Render("✗")
	}

	parts := []string{"  " + mark}
	if f.Var != "" {
		parts = append(parts, labelStyle.Render(f.Var+":"))
	}
	parts = append(parts, f.Message)
	if f.Code != "" {
		parts = append(parts, dimStyle.Render("["+string(f.Code)+"]"))
	}
	return strings.Join(parts, " ")
}
