package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnemyPoolEntry is one weighted enemy candidate in a location.
type EnemyPoolEntry struct {
	TemplateID string  `yaml:"template"`
	Weight     float64 `yaml:"weight"`
}

// LootPoolEntry is one weighted loot candidate in a location. Kind is
// "material" (style-inheriting crafting drop) or "item" (equipment drop).
type LootPoolEntry struct {
	ID     string  `yaml:"id"`
	Kind   string  `yaml:"kind"`
	Weight float64 `yaml:"weight"`
}

// Location defines a combat location loaded from YAML: its enemy pool and
// loot pool.
type Location struct {
	ID      string           `yaml:"id"`
	Name    string           `yaml:"name"`
	Enemies []EnemyPoolEntry `yaml:"enemies"`
	Loot    []LootPoolEntry  `yaml:"loot"`
}

// Validate checks that the location satisfies its invariants. Template
// references are checked later by the Manager, which knows the template set.
//
// Precondition: l must not be nil.
// Postcondition: Returns nil iff the id is non-empty, both pools are
// non-empty, all weights are positive, and every loot kind is known.
func (l *Location) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("location: id must not be empty")
	}
	if len(l.Enemies) == 0 {
		return fmt.Errorf("location %q: enemy pool must not be empty", l.ID)
	}
	if len(l.Loot) == 0 {
		return fmt.Errorf("location %q: loot pool must not be empty", l.ID)
	}
	for i, e := range l.Enemies {
		if e.TemplateID == "" {
			return fmt.Errorf("location %q: enemies[%d] must reference a template", l.ID, i)
		}
		if e.Weight <= 0 {
			return fmt.Errorf("location %q: enemies[%d] weight must be > 0, got %f", l.ID, i, e.Weight)
		}
	}
	for i, e := range l.Loot {
		if e.ID == "" {
			return fmt.Errorf("location %q: loot[%d] must have a non-empty id", l.ID, i)
		}
		if e.Kind != "material" && e.Kind != "item" {
			return fmt.Errorf("location %q: loot[%d] kind must be material or item, got %q", l.ID, i, e.Kind)
		}
		if e.Weight <= 0 {
			return fmt.Errorf("location %q: loot[%d] weight must be > 0, got %f", l.ID, i, e.Weight)
		}
	}
	return nil
}

// LoadLocationFromBytes parses a single location from raw YAML bytes.
//
// Postcondition: Returns a validated *Location, or an error.
func LoadLocationFromBytes(data []byte) (*Location, error) {
	var loc Location
	if err := yaml.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("parsing location YAML: %w", err)
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &loc, nil
}

// LoadLocations reads all *.yaml files in dir and returns the parsed
// locations.
//
// Postcondition: Returns all locations or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadLocations(dir string) ([]*Location, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading location dir %q: %w", dir, err)
	}

	var locations []*Location
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		loc, err := LoadLocationFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}
