package strategy

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SectorLimits overrides the built-in debt to equity bands. Sector keys
// are matched as lowercase substrings of the provider's sector label,
// longest key first so "investment bank" beats "bank".
type SectorLimits struct {
	Default float64            `yaml:"default"`
	Sectors map[string]float64 `yaml:"sectors"`
}

// LoadSectorLimits reads sector debt limits from a YAML file.
func LoadSectorLimits(path string) (*SectorLimits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "strategy: read sector limits %s", path)
	}

	// The YAML has a top-level "debt_equity" key
	var wrapper struct {
		DebtEquity SectorLimits `yaml:"debt_equity"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "strategy: parse sector limits")
	}

	limits := &wrapper.DebtEquity
	if limits.Default == 0 {
		limits.Default = 1.0
	}
	return limits, nil
}

// Limit returns the debt to equity ceiling for a sector label.
func (l *SectorLimits) Limit(sector string) float64 {
	s := strings.ToLower(sector)
	keys := make([]string, 0, len(l.Sectors))
	for k := range l.Sectors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(s, strings.ToLower(k)) {
			return l.Sectors[k]
		}
	}
	return l.Default
}
