package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`  'abc123'  `, "abc123"},
		{`"abc123"`, "abc123"},
		{`" spaced "`, "spaced"},
		{"plain", "plain"},
		{"  plain  ", "plain"},
		{`"mismatched'`, `"mismatched'`},
		{`"`, `"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeValue(tt.in); got != tt.want {
			t.Errorf("SanitizeValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeValue_Idempotent(t *testing.T) {
	inputs := []string{`"abc"`, `'x y'`, "  ' k '  ", "already-clean", `""`}
	for _, in := range inputs {
		once := SanitizeValue(in)
		if twice := SanitizeValue(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitize_OnlyAllowList(t *testing.T) {
	e := Env{
		"OPENAI_API_KEY": `"xai-123"`,
		"OTHER":          `"keep"`,
	}
	out, changed := Sanitize(e, DefaultAllowList)

	if out["OPENAI_API_KEY"] != "xai-123" {
		t.Errorf("expected cleaned key, got %q", out["OPENAI_API_KEY"])
	}
	if out["OTHER"] != `"keep"` {
		t.Errorf("non allow-listed var should be untouched, got %q", out["OTHER"])
	}
	if len(changed) != 1 || changed[0] != "OPENAI_API_KEY" {
		t.Errorf("unexpected changed list: %v", changed)
	}
	if e["OPENAI_API_KEY"] != `"xai-123"` {
		t.Error("input env must not be modified")
	}
}

func TestSanitize_AbsentSkipped(t *testing.T) {
	out, changed := Sanitize(Env{}, []string{"MISSING"})
	if len(out) != 0 || len(changed) != 0 {
		t.Errorf("expected nothing, got %v %v", out, changed)
	}
}

func TestFromPairs(t *testing.T) {
	e := FromPairs([]string{"A=1", "B=x=y", "bad", "=nokey"})
	if e["A"] != "1" || e["B"] != "x=y" {
		t.Errorf("unexpected env: %v", e)
	}
	if len(e) != 2 {
		t.Errorf("expected 2 entries, got %d", len(e))
	}
}

func TestPairs_Sorted(t *testing.T) {
	e := Env{"B": "2", "A": "1"}
	pairs := e.Pairs()
	if len(pairs) != 2 || pairs[0] != "A=1" || pairs[1] != "B=2" {
		t.Errorf("unexpected pairs: %v", pairs)
	}
}

func TestWith_DoesNotMutate(t *testing.T) {
	e := Env{"A": "1"}
	out := e.With("A", "2")
	if e["A"] != "1" || out["A"] != "2" {
		t.Errorf("With mutated input: %v %v", e, out)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	os.WriteFile(path, []byte("PORT=4000\nSOLANA_RPC_URL=https://rpc.example\n"), 0600)

	e := Env{"PORT": "3000"}
	out, loaded, err := LoadDotenv(e, path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("expected one loaded file, got %v", loaded)
	}
	if out["PORT"] != "3000" {
		t.Errorf("existing var should win, got %q", out["PORT"])
	}
	if out["SOLANA_RPC_URL"] != "https://rpc.example" {
		t.Errorf("dotenv var not merged: %v", out)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdefgh", "abcd***"},
		{"xai-0123456789abcdefghij", "xai-012345...ghij"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes "} {
		if !Bool(v) {
			t.Errorf("Bool(%q) should be true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "nope"} {
		if Bool(v) {
			t.Errorf("Bool(%q) should be false", v)
		}
	}
}
