package env

import "strings"

// SanitizeValue trims whitespace and strips one pair of matching wrapping
// quotes ("..." or '...'). Values that are not wrapped are only trimmed.
func SanitizeValue(value string) string {
	cleaned := strings.TrimSpace(value)
	if len(cleaned) >= 2 {
		first, last := cleaned[0], cleaned[len(cleaned)-1]
		if (first == '"' || first == '\'') && first == last {
			cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		}
	}
	return cleaned
}

// Sanitize cleans every allow-listed variable present in e and returns the
// updated copy along with the names whose value changed.
func Sanitize(e Env, names []string) (Env, []string) {
	out := e.Clone()
	var changed []string
	for _, name := range names {
		original, ok := out[name]
		if !ok || original == "" {
			continue
		}
		cleaned := SanitizeValue(original)
		if cleaned != original {
			out[name] = cleaned
			changed = append(changed, name)
		}
	}
	return out, changed
}
