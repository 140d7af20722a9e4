// Package catalog provides the read-only enemy and loot content the combat
// engine draws from: YAML enemy templates and per-location pools.
package catalog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emberworks/arena/internal/game/combat"
)

// GoldRange defines the currency payout range for a defeated enemy.
type GoldRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Template defines a reusable enemy archetype loaded from YAML. Base stats
// are for combat level 1; LevelScaling grows them per level above that.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Style       string `yaml:"style"`
	BaseAttack  int    `yaml:"base_attack"`
	BaseDefense int    `yaml:"base_defense"`
	BaseHP      int    `yaml:"base_hp"`
	// LevelScaling is the per-level stat growth factor: a stat at level L is
	// base * (1 + LevelScaling*(L-1)), rounded.
	LevelScaling float64   `yaml:"level_scaling"`
	Gold         GoldRange `yaml:"gold"`
	// Abilities holds special-ability tags. Reserved; not consumed by core
	// combat resolution.
	Abilities []string `yaml:"abilities"`
}

// Validate checks that the template satisfies its invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID, Name, and Style are non-empty, base
// stats are >= 1, scaling is non-negative, and the gold range is ordered and
// non-negative.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.Style == "" {
		return fmt.Errorf("enemy template %q: style must not be empty", t.ID)
	}
	if t.BaseAttack < 1 {
		return fmt.Errorf("enemy template %q: base_attack must be >= 1, got %d", t.ID, t.BaseAttack)
	}
	if t.BaseDefense < 1 {
		return fmt.Errorf("enemy template %q: base_defense must be >= 1, got %d", t.ID, t.BaseDefense)
	}
	if t.BaseHP < 1 {
		return fmt.Errorf("enemy template %q: base_hp must be >= 1, got %d", t.ID, t.BaseHP)
	}
	if t.LevelScaling < 0 {
		return fmt.Errorf("enemy template %q: level_scaling must be >= 0, got %f", t.ID, t.LevelScaling)
	}
	if t.Gold.Min < 0 {
		return fmt.Errorf("enemy template %q: gold min must be >= 0, got %d", t.ID, t.Gold.Min)
	}
	if t.Gold.Min > t.Gold.Max {
		return fmt.Errorf("enemy template %q: gold min (%d) must be <= max (%d)", t.ID, t.Gold.Min, t.Gold.Max)
	}
	return nil
}

// scaleStat grows a base stat to the given combat level.
//
// Precondition: level >= 1.
// Postcondition: Returns >= base for any non-negative scaling.
func (t *Template) scaleStat(base, level int) int {
	scaled := float64(base) * (1 + t.LevelScaling*float64(level-1))
	return int(math.Round(scaled))
}

// Resolve scales the template to a combat level, producing the enemy
// instance the engine fights. The gold range scales with the same factor as
// the combat stats so higher tiers pay out more.
//
// Precondition: t has passed Validate; level >= 1.
func (t *Template) Resolve(level int) combat.EnemySpec {
	return combat.EnemySpec{
		TemplateID:   t.ID,
		Name:         t.Name,
		Level:        level,
		AttackPower:  t.scaleStat(t.BaseAttack, level),
		DefensePower: t.scaleStat(t.BaseDefense, level),
		MaxHP:        t.scaleStat(t.BaseHP, level),
		Style:        t.Style,
		GoldMin:      t.scaleStat(t.Gold.Min, level),
		GoldMax:      t.scaleStat(t.Gold.Max, level),
		Abilities:    append([]string(nil), t.Abilities...),
	}
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing enemy template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
