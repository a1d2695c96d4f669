// Package character reads and patches the agent character JSON file.
// Edits go through gjson/sjson so key order and unrelated content survive.
package character

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrConfigParse is returned when the file is not a JSON object with an
// object-valued "settings" key.
var ErrConfigParse = errors.New("character config parse error")

var placeholderRe = regexp.MustCompile(`^\{\{\s*[A-Za-z0-9_]+\s*\}\}$`)

// IsPlaceholder reports whether s is a template placeholder like {{OPENAI_API_KEY}}.
func IsPlaceholder(s string) bool {
	return placeholderRe.MatchString(s)
}

// Document is a character file held in memory for one run.
type Document struct {
	Path    string
	raw     []byte
	changed bool
}

// Values are the resolved settings merged into the document.
type Values struct {
	APIKey        string
	BaseURL       string
	Model         string
	Secrets       map[string]string
	WalletAddress string
}

// Options control plugin filtering and the wallet bio line.
type Options struct {
	// PluginSecrets maps plugin identifiers to the secret names they own.
	PluginSecrets map[string][]string
	// WalletBio is a fmt template with a single %s for the address.
	WalletBio string
	// WalletMarker identifies an existing wallet line in bio.
	WalletMarker string
}

// PatchResult describes what Patch did.
type PatchResult struct {
	Changed  bool
	Fields   []string // JSON paths that were written
	Skipped  []string // secret names withheld by plugin filtering
	Warnings []string
}

// Load reads and validates a character file.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading character file: %w", err)
	}
	return Parse(path, raw)
}

// Parse validates raw JSON as a character document.
func Parse(path string, raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrConfigParse, path)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrConfigParse, path)
	}
	settings := root.Get("settings")
	if !settings.Exists() {
		return nil, fmt.Errorf("%w: %s has no \"settings\" key", ErrConfigParse, path)
	}
	if !settings.IsObject() {
		return nil, fmt.Errorf("%w: %s \"settings\" is not an object", ErrConfigParse, path)
	}
	return &Document{Path: path, raw: raw}, nil
}

// Bytes returns the current document content.
func (d *Document) Bytes() []byte {
	return d.raw
}

// Changed reports whether any patch modified the document since load.
func (d *Document) Changed() bool {
	return d.changed
}

// Name returns the character's name, if any.
func (d *Document) Name() string {
	return gjson.GetBytes(d.raw, "name").String()
}

// Plugins returns the declared plugin identifiers.
func (d *Document) Plugins() []string {
	var out []string
	for _, p := range gjson.GetBytes(d.raw, "plugins").Array() {
		if p.Type == gjson.String {
			out = append(out, p.String())
		}
	}
	return out
}

// Get returns the string at a gjson path.
func (d *Document) Get(path string) string {
	return gjson.GetBytes(d.raw, path).String()
}

// Bio returns the bio lines. A string bio is returned as a single line.
func (d *Document) Bio() []string {
	bio := gjson.GetBytes(d.raw, "bio")
	if bio.Type == gjson.String {
		return []string{bio.String()}
	}
	var out []string
	for _, line := range bio.Array() {
		out = append(out, line.String())
	}
	return out
}

// Patch merges v into the document. A field is written only when the resolved
// value is non-empty, is not itself a placeholder, and differs from the
// current value.
func (d *Document) Patch(v Values, opts Options) (PatchResult, error) {
	var res PatchResult

	for _, f := range []struct {
		path  string
		value string
	}{
		{"settings.apiKey", v.APIKey},
		{"settings.apiBaseUrl", v.BaseURL},
		{"settings.model", v.Model},
	} {
		ok, err := d.setString(f.path, f.value)
		if err != nil {
			return res, err
		}
		if ok {
			res.Fields = append(res.Fields, f.path)
		}
	}

	names := make([]string, 0, len(v.Secrets))
	for name := range v.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	filter := newPluginFilter(d.Plugins(), opts.PluginSecrets)
	for _, name := range names {
		if !filter.allows(name) {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		path := "settings.secrets." + escape(name)
		ok, err := d.setString(path, v.Secrets[name])
		if err != nil {
			return res, err
		}
		if ok {
			res.Fields = append(res.Fields, "settings.secrets."+name)
		}
	}

	if v.WalletAddress != "" && opts.WalletBio != "" {
		ok, warn, err := d.setWalletLine(fmt.Sprintf(opts.WalletBio, v.WalletAddress), opts.WalletMarker)
		if err != nil {
			return res, err
		}
		if warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		if ok {
			res.Fields = append(res.Fields, "bio")
		}
	}

	res.Changed = len(res.Fields) > 0
	if res.Changed {
		d.changed = true
	}
	return res, nil
}

// setString writes value at path unless it is empty, an unresolved
// placeholder, or already present.
func (d *Document) setString(path, value string) (bool, error) {
	if value == "" || IsPlaceholder(value) {
		return false, nil
	}
	cur := gjson.GetBytes(d.raw, path)
	if cur.Type == gjson.String && cur.String() == value {
		return false, nil
	}
	raw, err := sjson.SetBytes(d.raw, path, value)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", path, err)
	}
	d.raw = raw
	return true, nil
}

// setWalletLine keeps exactly one bio line containing marker, equal to line.
func (d *Document) setWalletLine(line, marker string) (bool, string, error) {
	if marker == "" {
		marker = line
	}
	bio := gjson.GetBytes(d.raw, "bio")

	switch {
	case !bio.Exists() || bio.Type == gjson.Null:
		return d.setBio([]string{line})
	case bio.Type == gjson.String:
		if s := bio.String(); !strings.Contains(s, marker) {
			return d.setBio([]string{s, line})
		}
		return d.setBio([]string{line})
	case !bio.IsArray():
		return false, "bio is neither a string nor a list; wallet line not written", nil
	}

	// Only string entries can hold the wallet line; other entries are kept as is.
	items := bio.Array()
	var hits []int
	for i, item := range items {
		if item.Type == gjson.String && strings.Contains(item.String(), marker) {
			hits = append(hits, i)
		}
	}

	if len(hits) == 0 {
		raw, err := sjson.SetBytes(d.raw, "bio.-1", line)
		if err != nil {
			return false, "", fmt.Errorf("appending bio: %w", err)
		}
		d.raw = raw
		return true, "", nil
	}
	if len(hits) == 1 && items[hits[0]].String() == line {
		return false, "", nil
	}

	// Keep the first wallet line's position and drop the rest, last first so
	// indexes stay valid.
	for i := len(hits) - 1; i > 0; i-- {
		raw, err := sjson.DeleteBytes(d.raw, "bio."+strconv.Itoa(hits[i]))
		if err != nil {
			return false, "", fmt.Errorf("updating bio: %w", err)
		}
		d.raw = raw
	}
	raw, err := sjson.SetBytes(d.raw, "bio."+strconv.Itoa(hits[0]), line)
	if err != nil {
		return false, "", fmt.Errorf("updating bio: %w", err)
	}
	d.raw = raw
	return true, "", nil
}

func (d *Document) setBio(lines []string) (bool, string, error) {
	raw, err := sjson.SetBytes(d.raw, "bio", lines)
	if err != nil {
		return false, "", fmt.Errorf("writing bio: %w", err)
	}
	d.raw = raw
	return true, "", nil
}

// Save writes the document back, pretty-printed, if it changed.
// It returns whether a write happened.
func (d *Document) Save() (bool, error) {
	if !d.changed {
		return false, nil
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.Path); err == nil {
		mode = info.Mode().Perm()
	}
	out := pretty.PrettyOptions(d.raw, &pretty.Options{Width: 80, Indent: "  "})

	tmp, err := os.CreateTemp(filepath.Dir(d.Path), ".character-*.json")
	if err != nil {
		return false, fmt.Errorf("writing character file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("writing character file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("writing character file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("writing character file: %w", err)
	}
	if err := os.Rename(tmpName, d.Path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("replacing character file: %w", err)
	}
	d.raw = out
	d.changed = false
	return true, nil
}

// Apply loads path, patches it and saves it if anything changed.
func Apply(path string, v Values, opts Options) (PatchResult, bool, error) {
	doc, err := Load(path)
	if err != nil {
		return PatchResult{}, false, err
	}
	res, err := doc.Patch(v, opts)
	if err != nil {
		return res, false, err
	}
	written, err := doc.Save()
	return res, written, err
}

// escape quotes gjson/sjson path metacharacters in a single key.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
