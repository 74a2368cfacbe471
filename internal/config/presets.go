package config

import (
	"fmt"
	"sort"
)

var Presets = map[string]Demonstration{
	"default": DefaultDemonstration(),
	"equilibrium": {
		M1: 10, M2: 10, MC: 10, L: 10, X0: 0,
	},
	"heavy_center": {
		M1: 10, M2: 10, MC: 18, L: 10, X0: -2,
	},
	"asymmetric": {
		M1: 8, M2: 14, MC: 10, L: 12, X0: -3,
	},
	"long_span": {
		M1: 20, M2: 20, MC: 20, L: 20, X0: -8,
	},
	"full_pull": {
		M1: 10, M2: 10, MC: 10, L: 5, X0: -5,
	},
}

func GetPreset(name string) (Demonstration, error) {
	p, ok := Presets[name]
	if !ok {
		return Demonstration{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	return p, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
