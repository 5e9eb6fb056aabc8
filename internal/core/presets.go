package core

import "strings"

// Preset is a canned pattern chosen by a free-text description.
type Preset struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Pattern  string   `json:"pattern"`
}

// presets are checked in order; the first whose keyword appears in the
// description wins.
var presets = []Preset{
	{
		Name:     "email",
		Keywords: []string{"email"},
		Pattern:  `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7}\b`,
	},
	{
		Name:     "phone",
		Keywords: []string{"phone", "contact number"},
		Pattern:  `\d{7,15}`,
	},
}

// Presets returns a copy of the known presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds the preset for a description, case-insensitively.
func LookupPreset(description string) (Preset, bool) {
	d := strings.ToLower(description)
	if strings.TrimSpace(d) == "" {
		return Preset{}, false
	}
	for _, p := range presets {
		for _, kw := range p.Keywords {
			if strings.Contains(d, kw) {
				return p, true
			}
		}
	}
	return Preset{}, false
}
