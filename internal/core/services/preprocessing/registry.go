package preprocessing

import (
	"fmt"
	"sort"
	"sync"
)

// presetEntry is a named option set with a description
type presetEntry struct {
	description string
	options     Options
}

// Registry manages the named option presets
type Registry struct {
	mu      sync.RWMutex
	presets map[string]presetEntry
	aliases map[string]string
}

// Global registry instance
var globalRegistry = &Registry{
	presets: make(map[string]presetEntry),
	aliases: make(map[string]string),
}

// RegisterPreset adds a preset to the registry with optional aliases
func RegisterPreset(name, description string, opts Options, aliases ...string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.presets[name] = presetEntry{description: description, options: opts.Clone()}

	for _, alias := range aliases {
		globalRegistry.aliases[alias] = name
	}
}

// Preset retrieves the options of a preset by name or alias
func Preset(identifier string) (Options, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	if name, exists := globalRegistry.aliases[identifier]; exists {
		identifier = name
	}

	entry, exists := globalRegistry.presets[identifier]
	if !exists {
		return Options{}, fmt.Errorf("preset '%s' not found. Available: %v", identifier, listPresetsLocked())
	}

	return entry.options.Clone(), nil
}

// ListPresets returns the sorted preset names
func ListPresets() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	return listPresetsLocked()
}

func listPresetsLocked() []string {
	names := make([]string, 0, len(globalRegistry.presets))
	for name := range globalRegistry.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetInfo describes a registered preset
type PresetInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
	Options     Options  `json:"options"`
}

// ListPresetsWithMetadata returns detailed information about all presets
func ListPresetsWithMetadata() []PresetInfo {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := listPresetsLocked()
	result := make([]PresetInfo, 0, len(names))

	for _, name := range names {
		entry := globalRegistry.presets[name]

		aliases := []string{}
		for alias, target := range globalRegistry.aliases {
			if target == name {
				aliases = append(aliases, alias)
			}
		}
		sort.Strings(aliases)

		result = append(result, PresetInfo{
			Name:        name,
			Description: entry.description,
			Aliases:     aliases,
			Options:     entry.options.Clone(),
		})
	}

	return result
}

// init registers the built-in presets
func init() {
	RegisterPreset("full", "Every stage of the original service defaults", DefaultOptions(), "default")

	RegisterPreset("minimal", "Punctuation, whitespace and lowercasing only", Options{
		RemovePunctuation:  true,
		CollapseWhitespace: true,
		Lowercase:          true,
	})

	RegisterPreset("aggressive", "All stages including stopword and number removal", Options{
		NormalizeTurkishChars:        true,
		RemoveAccentMarks:            true,
		RemovePunctuation:            true,
		RemoveNumbers:                true,
		CollapseWhitespace:           true,
		RemoveStopwords:              true,
		Lowercase:                    true,
		ReplaceOffensiveContractions: true,
		NormalizeNumericText:         true,
	})
}
