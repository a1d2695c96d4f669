package character

// pluginFilter decides which secrets may be written for a character.
// A secret owned by a plugin is written only if the character declares that
// plugin. Secrets no plugin claims are always written. If the character
// declares none of the mapped plugins, nothing is filtered.
type pluginFilter struct {
	owners   map[string][]string // secret -> plugins that own it
	declared map[string]bool
	active   bool
}

func newPluginFilter(declared []string, mapping map[string][]string) pluginFilter {
	f := pluginFilter{
		owners:   map[string][]string{},
		declared: map[string]bool{},
	}
	for _, p := range declared {
		f.declared[p] = true
	}
	for plugin, secrets := range mapping {
		for _, s := range secrets {
			f.owners[s] = append(f.owners[s], plugin)
		}
		if f.declared[plugin] {
			f.active = true
		}
	}
	return f
}

func (f pluginFilter) allows(secret string) bool {
	if !f.active {
		return true
	}
	owners, ok := f.owners[secret]
	if !ok {
		return true
	}
	for _, p := range owners {
		if f.declared[p] {
			return true
		}
	}
	return false
}
