package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params is a flat set of named numeric parameters.
type Params map[string]float64

// RuleTable is one expert-rule category: rule name → parameters.
type RuleTable map[string]Params

// Equipment describes one piece of plant equipment and its rated parameters.
type Equipment struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Parameters  Params `yaml:"parameters"`
}

// PLCVariable describes one addressable PLC tag. The sheet is informational —
// exposed read-only through the API so operators can map decisions to tags.
type PLCVariable struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	Address     string  `yaml:"address" json:"address"`
	DataType    string  `yaml:"data_type" json:"data_type"`
	Description string  `yaml:"description" json:"description"`
	Unit        string  `yaml:"unit" json:"unit,omitempty"`
	Min         float64 `yaml:"min" json:"min"`
	Max         float64 `yaml:"max" json:"max"`
	Default     float64 `yaml:"default" json:"default"`
	ReadOnly    bool    `yaml:"read_only" json:"read_only"`
}

// Store is the immutable knowledge store. Construct via Defaults or Load;
// all lookups are safe for concurrent use.
type Store struct {
	rules     map[string]RuleTable
	equipment map[string]Equipment
	plcVars   []PLCVariable
}

// overlay is the YAML file shape accepted by Load.
type overlay struct {
	ExpertRules map[string]RuleTable `yaml:"expert_rules"`
	Equipment   map[string]Equipment `yaml:"equipment"`
	PLCVars     []PLCVariable        `yaml:"plc_variables"`
}

// Load builds a Store from the compiled-in defaults plus the YAML overlay at
// path. Overlay entries replace default entries with the same key; rule
// parameters merge per-key. An empty path returns Defaults().
func Load(path string) (*Store, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %s: %w", path, err)
	}

	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("knowledge: parse %s: %w", path, err)
	}

	for category, table := range ov.ExpertRules {
		dst, ok := s.rules[category]
		if !ok {
			dst = RuleTable{}
			s.rules[category] = dst
		}
		for name, params := range table {
			existing, ok := dst[name]
			if !ok {
				existing = Params{}
				dst[name] = existing
			}
			for k, v := range params {
				existing[k] = v
			}
		}
	}
	for name, eq := range ov.Equipment {
		s.equipment[name] = eq
	}
	if len(ov.PLCVars) > 0 {
		s.plcVars = ov.PLCVars
	}
	return s, nil
}

// Rule returns the parameters for one expert-rule entry.
func (s *Store) Rule(category, name string) (Params, bool) {
	table, ok := s.rules[category]
	if !ok {
		return nil, false
	}
	p, ok := table[name]
	return p, ok
}

// RuleValue returns one expert-rule parameter, or fallback when the category,
// rule, or key is absent.
func (s *Store) RuleValue(category, name, key string, fallback float64) float64 {
	p, ok := s.Rule(category, name)
	if !ok {
		return fallback
	}
	v, ok := p[key]
	if !ok {
		return fallback
	}
	return v
}

// Equipment returns one equipment sheet.
func (s *Store) Equipment(name string) (Equipment, bool) {
	eq, ok := s.equipment[name]
	return eq, ok
}

// EquipmentParam returns one rated equipment parameter, or fallback when the
// equipment or key is absent.
func (s *Store) EquipmentParam(name, key string, fallback float64) float64 {
	eq, ok := s.equipment[name]
	if !ok {
		return fallback
	}
	v, ok := eq.Parameters[key]
	if !ok {
		return fallback
	}
	return v
}

// PLCVariables returns the PLC variable sheet. Callers must not modify the
// returned slice.
func (s *Store) PLCVariables() []PLCVariable {
	return s.plcVars
}
