package pattern

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltin returns a registry populated with the built-in DASH and MVR
// rule libraries. Callers that need site-specific rules layer a directory
// over it with LoadDirectory.
func LoadBuiltin() (*Registry, error) {
	r := NewRegistry()
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("reading built-in rules: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := builtinFS.ReadFile("builtin/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading built-in rule %s: %w", entry.Name(), err)
		}
		if err := r.registerYAML(data); err != nil {
			return nil, fmt.Errorf("built-in rule %s: %w", entry.Name(), err)
		}
	}
	return r, nil
}
