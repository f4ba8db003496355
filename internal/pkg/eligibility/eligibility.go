// Package eligibility — пороги Medicaid и CHIP по штатам для запроса объяснения.
package eligibility

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

// Thresholds — пороги программ штата в процентах FPL.
type Thresholds struct {
	IsExpansion bool    `yaml:"expansion"`
	AdultPct    float64 `yaml:"adult"`
	ChildPct    float64 `yaml:"child"`
	CHIPPct     float64 `yaml:"chip"`
}

// Table — таблица порогов по двухбуквенному коду штата.
type Table struct {
	states map[string]Thresholds
}

type document struct {
	States map[string]Thresholds `yaml:"states"`
}

// Parse читает таблицу из YAML.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse eligibility table: %w", err)
	}
	if len(doc.States) == 0 {
		return nil, fmt.Errorf("parse eligibility table: no states")
	}
	states := make(map[string]Thresholds, len(doc.States))
	for code, th := range doc.States {
		if th.AdultPct < 0 || th.ChildPct < 0 || th.CHIPPct < 0 {
			return nil, fmt.Errorf("parse eligibility table: negative threshold for %s", code)
		}
		states[strings.ToUpper(code)] = th
	}
	return &Table{states: states}, nil
}

// Default возвращает встроенную таблицу.
func Default() *Table {
	t, err := Parse(thresholdsYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup возвращает пороги штата. Для неизвестного штата ok=false.
func (t *Table) Lookup(state string) (Thresholds, bool) {
	th, ok := t.states[strings.ToUpper(strings.TrimSpace(state))]
	return th, ok
}

// Len — число штатов в таблице.
func (t *Table) Len() int {
	return len(t.states)
}
