package character

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

const sampleCharacter = `{
  "name": "AMICA Agent",
  "plugins": ["@elizaos/plugin-bootstrap", "@elizaos/plugin-solana"],
  "settings": {
    "apiKey": "{{OPENAI_API_KEY}}",
    "apiBaseUrl": "{{OPENAI_API_BASE_URL}}",
    "secrets": {
      "SOLANA_PRIVATE_KEY": "{{SOLANA_PRIVATE_KEY}}"
    }
  },
  "bio": ["Helpful agent."]
}`

var testOpts = Options{
	PluginSecrets: map[string][]string{
		"@elizaos/plugin-solana":  {"SOLANA_PRIVATE_KEY", "SOLANA_PUBLIC_KEY"},
		"@elizaos/plugin-twitter": {"TWITTER_API_KEY"},
	},
	WalletBio:    "My Solana wallet address is %s.",
	WalletMarker: "Solana wallet address",
}

func writeCharacter(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func walletLines(doc *Document) []string {
	var out []string
	for _, l := range doc.Bio() {
		if strings.Contains(l, "Solana wallet address") {
			out = append(out, l)
		}
	}
	return out
}

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"{{OPENAI_API_KEY}}", "{{ x }}"} {
		if !IsPlaceholder(s) {
			t.Errorf("%q should be a placeholder", s)
		}
	}
	for _, s := range []string{"", "xai-123", "{{}}", "prefix {{A}}"} {
		if IsPlaceholder(s) {
			t.Errorf("%q should not be a placeholder", s)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"settings": `},
		{"array root", `[1,2]`},
		{"missing settings", `{"name": "x", "bio": []}`},
		{"settings not object", `{"settings": "nope"}`},
	}
	for _, tt := range tests {
		_, err := Parse("agent.json", []byte(tt.raw))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("%s: expected ErrConfigParse, got %v", tt.name, err)
		}
	}
}

func TestApply_MissingSettingsDoesNotWrite(t *testing.T) {
	original := `{"name": "x"}`
	path := writeCharacter(t, original)

	_, written, err := Apply(path, Values{APIKey: "xai-1"}, testOpts)
	if !errors.Is(err, ErrConfigParse) {
		t.Fatalf("expected ErrConfigParse, got %v", err)
	}
	if written {
		t.Error("nothing should be written")
	}
	got, _ := os.ReadFile(path)
	if string(got) != original {
		t.Errorf("file modified: %s", got)
	}
}

func TestPatch_ReplacesPlaceholders(t *testing.T) {
	doc, err := Parse("agent.json", []byte(sampleCharacter))
	if err != nil {
		t.Fatal(err)
	}
	res, err := doc.Patch(Values{
		APIKey:  "xai-abc",
		BaseURL: "https://api.x.ai/v1",
		Model:   "grok-beta",
		Secrets: map[string]string{"SOLANA_PRIVATE_KEY": "seed58"},
	}, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed {
		t.Fatal("expected change")
	}
	if doc.Get("settings.apiKey") != "xai-abc" || doc.Get("settings.model") != "grok-beta" {
		t.Errorf("settings not patched: %s", doc.Bytes())
	}
	if doc.Get("settings.secrets.SOLANA_PRIVATE_KEY") != "seed58" {
		t.Errorf("secret not patched: %s", doc.Bytes())
	}
	if doc.Name() != "AMICA Agent" {
		t.Error("unrelated fields must survive")
	}
}

func TestPatch_EmptyValuesSkipped(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(sampleCharacter))
	res, err := doc.Patch(Values{}, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Errorf("empty values should not change anything: %v", res.Fields)
	}
	if doc.Get("settings.apiKey") != "{{OPENAI_API_KEY}}" {
		t.Error("placeholder should be left in place")
	}
}

func TestPatch_PluginFiltering(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(sampleCharacter))
	res, err := doc.Patch(Values{Secrets: map[string]string{
		"SOLANA_PUBLIC_KEY": "pub",
		"TWITTER_API_KEY":   "tw",
		"UNMAPPED_SECRET":   "u",
	}}, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Get("settings.secrets.SOLANA_PUBLIC_KEY") != "pub" {
		t.Error("declared plugin secret should be written")
	}
	if gjson.GetBytes(doc.Bytes(), "settings.secrets.TWITTER_API_KEY").Exists() {
		t.Error("undeclared plugin secret must not be written")
	}
	if doc.Get("settings.secrets.UNMAPPED_SECRET") != "u" {
		t.Error("secrets owned by no plugin should be written")
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "TWITTER_API_KEY" {
		t.Errorf("unexpected skipped list %v", res.Skipped)
	}
}

func TestPatch_NoMappedPluginWritesAll(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"plugins": [], "settings": {}}`))
	_, err := doc.Patch(Values{Secrets: map[string]string{"TWITTER_API_KEY": "tw"}}, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Get("settings.secrets.TWITTER_API_KEY") != "tw" {
		t.Errorf("expected secret written, got %s", doc.Bytes())
	}
}

func TestApply_Idempotent(t *testing.T) {
	path := writeCharacter(t, sampleCharacter)
	v := Values{
		APIKey:        "xai-abc",
		Secrets:       map[string]string{"SOLANA_PRIVATE_KEY": "seed58"},
		WalletAddress: "WalletAddr111",
	}

	_, written, err := Apply(path, v, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if !written {
		t.Fatal("first apply should write")
	}
	info1, _ := os.Stat(path)
	content1, _ := os.ReadFile(path)

	res, written, err := Apply(path, v, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if written || res.Changed {
		t.Errorf("second apply should not write, fields=%v", res.Fields)
	}
	content2, _ := os.ReadFile(path)
	if string(content1) != string(content2) {
		t.Error("file content changed on second apply")
	}
	info2, _ := os.Stat(path)
	if info1.Mode() != info2.Mode() {
		t.Errorf("file mode changed: %v -> %v", info1.Mode(), info2.Mode())
	}
}

func TestPatch_SecondPatchNoChange(t *testing.T) {
	tests := []struct {
		name  string
		v     Values
		first bool
	}{
		{"resolved value", Values{Model: "grok-beta"}, true},
		{"unresolved placeholder", Values{Model: "{{MODEL}}"}, false},
		{"same as current", Values{Model: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse("agent.json", []byte(`{"settings":{"model":"x"}}`))
			if err != nil {
				t.Fatal(err)
			}
			r1, err := doc.Patch(tt.v, testOpts)
			if err != nil {
				t.Fatal(err)
			}
			if r1.Changed != tt.first {
				t.Errorf("first patch: expected changed=%v, got %v", tt.first, r1.Changed)
			}
			r2, err := doc.Patch(tt.v, testOpts)
			if err != nil {
				t.Fatal(err)
			}
			if r2.Changed {
				t.Errorf("second patch should not change anything, fields=%v", r2.Fields)
			}
		})
	}
}

func TestPatch_PlaceholderValueNotWritten(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings":{"model":"x"}}`))
	if _, err := doc.Patch(Values{Model: "{{MODEL}}"}, testOpts); err != nil {
		t.Fatal(err)
	}
	if doc.Get("settings.model") != "x" {
		t.Errorf("placeholder value overwrote a real one: %s", doc.Bytes())
	}
}

func TestApply_PreservesKeyOrder(t *testing.T) {
	path := writeCharacter(t, sampleCharacter)
	if _, _, err := Apply(path, Values{APIKey: "xai-abc"}, testOpts); err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(path)
	s := string(content)
	if strings.Index(s, `"name"`) > strings.Index(s, `"plugins"`) ||
		strings.Index(s, `"plugins"`) > strings.Index(s, `"settings"`) {
		t.Errorf("key order not preserved:\n%s", s)
	}
	if !strings.Contains(s, "\n  \"settings\"") {
		t.Errorf("expected two-space indentation:\n%s", s)
	}
}

func TestPatch_WalletLineNeverDuplicated(t *testing.T) {
	path := writeCharacter(t, sampleCharacter)

	if _, _, err := Apply(path, Values{WalletAddress: "FirstAddr"}, testOpts); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Apply(path, Values{WalletAddress: "SecondAddr"}, testOpts); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := walletLines(doc)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one wallet line, got %v", lines)
	}
	if lines[0] != "My Solana wallet address is SecondAddr." {
		t.Errorf("unexpected wallet line %q", lines[0])
	}
	if doc.Bio()[0] != "Helpful agent." {
		t.Error("other bio lines must be kept")
	}
}

func TestPatch_WalletCollapsesDuplicates(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings": {}, "bio": [
		"My Solana wallet address is A.", "Middle.", "Solana wallet address: B"]}`))
	if _, err := doc.Patch(Values{WalletAddress: "C"}, testOpts); err != nil {
		t.Fatal(err)
	}
	bio := doc.Bio()
	if len(bio) != 2 || bio[0] != "My Solana wallet address is C." || bio[1] != "Middle." {
		t.Errorf("unexpected bio %v", bio)
	}
}

func TestPatch_WalletCollapseKeepsNonStringEntries(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings": {}, "bio": [
		"Solana wallet address: A", {"a":1}, 7, "Solana wallet address: B", "Last."]}`))
	if _, err := doc.Patch(Values{WalletAddress: "C"}, testOpts); err != nil {
		t.Fatal(err)
	}
	bio := gjson.GetBytes(doc.Bytes(), "bio").Array()
	if len(bio) != 4 {
		t.Fatalf("unexpected bio %s", gjson.GetBytes(doc.Bytes(), "bio").Raw)
	}
	if bio[0].String() != "My Solana wallet address is C." {
		t.Errorf("wallet line not kept in first position: %v", bio[0])
	}
	if !bio[1].IsObject() || bio[1].Get("a").Int() != 1 {
		t.Errorf("object entry changed: %s", bio[1].Raw)
	}
	if bio[2].Type != gjson.Number || bio[2].Int() != 7 {
		t.Errorf("number entry changed: %s", bio[2].Raw)
	}
	if bio[3].String() != "Last." {
		t.Errorf("unexpected last entry %s", bio[3].Raw)
	}
}

func TestPatch_WalletCreatesBio(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings": {}}`))
	if _, err := doc.Patch(Values{WalletAddress: "Z"}, testOpts); err != nil {
		t.Fatal(err)
	}
	if bio := doc.Bio(); len(bio) != 1 || bio[0] != "My Solana wallet address is Z." {
		t.Errorf("unexpected bio %v", bio)
	}
}

func TestPatch_WalletStringBio(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings": {}, "bio": "Single line."}`))
	if _, err := doc.Patch(Values{WalletAddress: "Z"}, testOpts); err != nil {
		t.Fatal(err)
	}
	bio := doc.Bio()
	if len(bio) != 2 || bio[0] != "Single line." {
		t.Errorf("unexpected bio %v", bio)
	}
}

func TestPatch_WalletBadBioType(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(`{"settings": {}, "bio": 42}`))
	res, err := doc.Patch(Values{WalletAddress: "Z"}, testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed || len(res.Warnings) != 1 {
		t.Errorf("expected a warning and no change, got %+v", res)
	}
}

func TestPlugins(t *testing.T) {
	doc, _ := Parse("agent.json", []byte(sampleCharacter))
	plugins := doc.Plugins()
	if len(plugins) != 2 || plugins[1] != "@elizaos/plugin-solana" {
		t.Errorf("unexpected plugins %v", plugins)
	}
}

func TestSave_Unchanged(t *testing.T) {
	path := writeCharacter(t, sampleCharacter)
	doc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	written, err := doc.Save()
	if err != nil || written {
		t.Errorf("unchanged document should not be written: %v %v", written, err)
	}
}
