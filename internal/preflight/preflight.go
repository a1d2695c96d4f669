package preflight

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vinayprograms/bootshim/internal/character"
	"github.com/vinayprograms/bootshim/internal/config"
	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/solkey"
)

// Variables read by the rules below.
const (
	VarAPIKey        = "OPENAI_API_KEY"
	VarBaseURL       = "OPENAI_API_BASE_URL"
	VarBaseURLAlias  = "OPENAI_BASE_URL"
	VarModel         = "OPENAI_MODEL"
	VarPrivateKey    = "SOLANA_PRIVATE_KEY"
	VarPublicKey     = "SOLANA_PUBLIC_KEY"
	VarKeyFormat     = "SOLANA_PRIVATE_KEY_FORMAT"
	VarUse64ByteKey  = "SOLANA_USE_64_BYTE_KEY"
	VarPort          = "PORT"
	VarElizaPort     = "ELIZA_PORT"
	VarCharacterPath = "ELIZA_CHARACTER_PATH"
	VarTrustProxy    = "TRUST_PROXY"
)

// Key prefixes recognised for the model backend.
const (
	GrokKeyPrefix   = "xai-"
	OpenAIKeyPrefix = "sk-"
)

// secretVars are copied into settings.secrets of the character.
var secretVars = []string{
	"SOLANA_RPC_URL",
	VarPublicKey,
	VarPrivateKey,
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

// Result is the outcome of a preflight run. Env is a new snapshot; the input
// is never modified.
type Result struct {
	Env       env.Env
	Values    character.Values
	Key       *solkey.Material
	KeyFormat solkey.Format
	Findings  []Finding
}

// Has reports whether any finding carries code.
func (r *Result) Has(code Code) bool {
	for _, f := range r.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Count returns the number of findings with severity s.
func (r *Result) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Add appends a finding.
func (r *Result) Add(f Finding) {
	r.Findings = append(r.Findings, f)
}

type run struct {
	cfg *config.Config
	res Result
}

// Run applies every rule to e in order: sanitize, key format, API key,
// base URL, Solana keys, presence of required variables, runtime variables.
func Run(e env.Env, cfg *config.Config) Result {
	if cfg == nil {
		cfg = config.New()
	}
	r := &run{cfg: cfg, res: Result{Env: e.Clone()}}
	r.sanitize()
	r.keyFormat()
	r.apiKey()
	r.baseURL()
	r.privateKey()
	r.publicKey()
	r.presence()
	r.runtimeEnv()
	r.values()
	return r.res
}

func (r *run) add(sev Severity, code Code, variable, msg, hint string) {
	r.res.Add(Finding{Severity: sev, Code: code, Var: variable, Message: msg, Hint: hint})
}

func (r *run) get(name string) string {
	return r.res.Env.Get(name)
}

func (r *run) set(name, value string) {
	r.res.Env[name] = value
}

func (r *run) sanitize() {
	names := r.cfg.Vars.Sanitize
	if len(names) == 0 {
		names = env.DefaultAllowList
	}
	cleaned, changed := env.Sanitize(r.res.Env, names)
	r.res.Env = cleaned
	for _, name := range changed {
		r.add(SeverityInfo, "", name, "removed wrapping quotes or whitespace", "")
	}
}

func (r *run) keyFormat() {
	format, err := solkey.ParseFormat(r.cfg.Keys.Format)
	if err != nil {
		r.add(SeverityWarn, "", "", fmt.Sprintf("config keys.format: %v; using 32", err), "")
	}
	// An explicit SOLANA_PRIVATE_KEY_FORMAT (also set by --key-format) beats
	// the SOLANA_USE_64_BYTE_KEY switch.
	explicit := false
	if v, ok := r.res.Env.Lookup(VarKeyFormat); ok && strings.TrimSpace(v) != "" {
		f, err := solkey.ParseFormat(v)
		if err != nil {
			r.add(SeverityWarn, "", VarKeyFormat, err.Error(), "use 32 or 64")
		} else {
			format, explicit = f, true
		}
	}
	if !explicit && env.Bool(r.get(VarUse64ByteKey)) {
		format = solkey.Format64
	}
	r.res.KeyFormat = format
}

func (r *run) apiKey() {
	key := r.get(VarAPIKey)
	switch {
	case key == "":
	case strings.HasPrefix(key, GrokKeyPrefix):
		r.add(SeverityOK, "", VarAPIKey, "Grok key (xai- prefix)", "")
	case strings.HasPrefix(key, OpenAIKeyPrefix):
		r.add(SeverityWarn, "", VarAPIKey, "OpenAI key (sk- prefix); Grok keys start with xai-",
			"get a Grok key from https://console.x.ai")
	default:
		r.add(SeverityWarn, "", VarAPIKey, "unrecognized key prefix (expected xai- or sk-)", "")
	}
}

func (r *run) baseURL() {
	base := r.get(VarBaseURL)
	if base == "" {
		base = r.get(VarBaseURLAlias)
	}
	if strings.HasPrefix(r.get(VarAPIKey), GrokKeyPrefix) {
		switch {
		case base == "":
			base = config.GrokBaseURL
			r.add(SeverityWarn, "", VarBaseURL, "not set for a Grok key; defaulting to "+config.GrokBaseURL,
				"set "+VarBaseURL+"="+config.GrokBaseURL)
		case base != config.GrokBaseURL:
			r.add(SeverityWarn, "", VarBaseURL, fmt.Sprintf("%s differs from the Grok endpoint %s", base, config.GrokBaseURL), "")
		default:
			r.add(SeverityOK, "", VarBaseURL, "Grok endpoint configured", "")
		}
	}
	if base != "" {
		r.set(VarBaseURL, base)
		r.set(VarBaseURLAlias, base)
	}
}

func (r *run) privateKey() {
	raw := r.get(VarPrivateKey)
	if raw == "" {
		return
	}
	if ws := whitespace(raw); len(ws) > 0 {
		r.add(SeverityError, InvalidEncoding, VarPrivateKey,
			"contains whitespace or line breaks: "+strings.Join(ws, ", "), "remove spaces and newlines from the key")
	}
	if n := len(raw); n < 40 || n > 100 {
		r.add(SeverityWarn, "", VarPrivateKey, fmt.Sprintf("unusual length (%d chars, expected 40-100)", n), "")
	}

	m, err := solkey.Normalize(raw)
	if err != nil {
		r.add(SeverityError, CodeFor(err), VarPrivateKey, err.Error(), keyHint(err))
		return
	}
	r.res.Key = m
	r.add(SeverityOK, "", VarPrivateKey, fmt.Sprintf("decoded %d bytes (%s)", m.Size(), m.Encoding), "")

	if m.Mismatch {
		r.add(SeverityWarn, "", VarPrivateKey, "embedded public half does not match the key derived from the seed; using the derived key", "")
	}

	secret := m.Secret(r.res.KeyFormat)
	if secret != raw {
		r.set(VarPrivateKey, secret)
		r.add(SeverityInfo, "", VarPrivateKey, fmt.Sprintf("rewritten to the %d-byte form", r.res.KeyFormat), "")
	}

	configured := r.get(VarPublicKey)
	switch {
	case configured == "":
		r.set(VarPublicKey, m.PublicKey)
		r.add(SeverityInfo, "", VarPublicKey, "derived from "+VarPrivateKey, "")
	case configured != m.PublicKey:
		r.set(VarPublicKey, m.PublicKey)
		r.add(SeverityWarn, "", VarPublicKey, "does not match the key derived from "+VarPrivateKey+"; using the derived key",
			"set "+VarPublicKey+"="+m.PublicKey)
	default:
		r.add(SeverityOK, "", VarPublicKey, "matches "+VarPrivateKey, "")
	}
}

// publicKey validates a public key that could not be checked against a private key.
func (r *run) publicKey() {
	if r.res.Key != nil {
		return
	}
	pub := r.get(VarPublicKey)
	if pub == "" {
		return
	}
	if err := solkey.ValidatePublicKey(pub); err != nil {
		r.add(SeverityWarn, CodeFor(err), VarPublicKey, err.Error(), "")
		return
	}
	r.add(SeverityOK, "", VarPublicKey, "valid base58 public key", "")
}

func (r *run) presence() {
	for _, name := range r.cfg.Vars.Required {
		if _, ok := r.res.Env.Lookup(name); !ok {
			r.add(SeverityError, MissingCredential, name, ErrMissingCredential.Error(), "dependent checks skipped")
		}
	}
	for _, name := range r.cfg.Vars.Optional {
		if _, ok := r.res.Env.Lookup(name); !ok {
			r.add(SeverityInfo, "", name, "optional, not set", "")
		}
	}
}

func (r *run) runtimeEnv() {
	port := r.get(VarPort)
	if port == "" {
		port = r.get(VarElizaPort)
	}
	if port == "" {
		port = r.cfg.Server.Port
	}
	if port != "" {
		r.set(VarPort, port)
		r.set(VarElizaPort, port)
	}
	if p := r.cfg.Character.Path; p != "" {
		r.set(VarCharacterPath, p)
	}
	if v, ok := r.res.Env.Lookup(VarTrustProxy); ok {
		r.set(VarTrustProxy, fmt.Sprintf("%t", env.Bool(v)))
	}
}

func (r *run) values() {
	e := r.res.Env
	v := character.Values{
		APIKey:  e.Get(VarAPIKey),
		BaseURL: e.Get(VarBaseURL),
		Model:   e.Get(VarModel),
		Secrets: map[string]string{},
	}
	for _, name := range secretVars {
		if val, ok := e.Lookup(name); ok {
			v.Secrets[name] = val
		}
	}
	switch {
	case r.res.Key != nil:
		v.WalletAddress = r.res.Key.PublicKey
	case solkey.ValidatePublicKey(e.Get(VarPublicKey)) == nil:
		v.WalletAddress = e.Get(VarPublicKey)
	}
	r.res.Values = v
}

func whitespace(s string) []string {
	var out []string
	seen := map[rune]bool{}
	for _, c := range s {
		if unicode.IsSpace(c) && !seen[c] {
			seen[c] = true
			out = append(out, fmt.Sprintf("%q", c))
		}
	}
	return out
}

func keyHint(err error) string {
	switch CodeFor(err) {
	case InvalidKeySize:
		return "the key must decode to 32 bytes (seed) or 64 bytes (seed+public); check the wallet export"
	case InvalidEncoding:
		return "base58 excludes 0, O, I and l; check for pasted spaces or quotes"
	}
	return ""
}
