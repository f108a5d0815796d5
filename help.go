package envfigure

import (
	"github.com/AlekSi/pointer"
)

// HelpEntry documents one environment variable.
type HelpEntry struct {
	Default string  // raw default, "" for none
	Help    *string // nil when the field has no help text
}

// Text is the help text or "" when there is none.
func (h HelpEntry) Text() string {
	return pointer.GetString(h.Help)
}

// HelpMap maps each recognized environment variable to its
// documentation.  Use Schema.Keys() for a stable display order.
type HelpMap map[string]HelpEntry

// CollectHelp walks a schema and documents every leaf field.  Nested
// records contribute their leaves, never an entry of their own.  When
// two leaves share a key the later one wins; build the Registry
// WithStrictKeys() to reject that instead.
func CollectHelp(s *Schema) HelpMap {
	help := make(HelpMap)
	s.walkLeaves(func(f *Field) {
		entry := HelpEntry{Default: f.Default}
		if f.Help != nil {
			entry.Help = pointer.ToString(*f.Help)
		}
		help[f.Key()] = entry
	})
	return help
}

// Merge copies other into h, overwriting shared keys.
func (h HelpMap) Merge(other HelpMap) {
	for key, entry := range other {
		h[key] = entry
	}
}
