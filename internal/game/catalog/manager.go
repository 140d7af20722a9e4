package catalog

import (
	"fmt"

	"github.com/emberworks/arena/internal/game/combat"
)

// Manager indexes validated templates and locations and serves the combat
// engine's CatalogProvider queries. The content is immutable after
// construction, so reads need no locking.
type Manager struct {
	templates map[string]*Template
	locations map[string]*Location
}

// NewManager builds a Manager and verifies that every enemy pool entry
// references a known template.
//
// Postcondition: Returns a Manager serving all given content, or an error
// naming the first dangling template reference or duplicate id.
func NewManager(templates []*Template, locations []*Location) (*Manager, error) {
	m := &Manager{
		templates: make(map[string]*Template, len(templates)),
		locations: make(map[string]*Location, len(locations)),
	}
	for _, tmpl := range templates {
		if _, dup := m.templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("duplicate enemy template id %q", tmpl.ID)
		}
		m.templates[tmpl.ID] = tmpl
	}
	for _, loc := range locations {
		if _, dup := m.locations[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		for _, e := range loc.Enemies {
			if _, ok := m.templates[e.TemplateID]; !ok {
				return nil, fmt.Errorf("location %q references unknown enemy template %q", loc.ID, e.TemplateID)
			}
		}
		m.locations[loc.ID] = loc
	}
	return m, nil
}

// LoadManager reads enemy templates and locations from their content
// directories and builds a Manager.
func LoadManager(enemiesDir, locationsDir string) (*Manager, error) {
	templates, err := LoadTemplates(enemiesDir)
	if err != nil {
		return nil, err
	}
	locations, err := LoadLocations(locationsDir)
	if err != nil {
		return nil, err
	}
	return NewManager(templates, locations)
}

// EnemyPool returns the weighted enemy candidates for a location, with every
// template's base stats scaled to the given combat level.
//
// Precondition: level >= 1.
// Postcondition: Returns a non-empty pool, or ErrCatalogUnavailable for an
// unknown location.
func (m *Manager) EnemyPool(locationID string, level int) ([]combat.Weighted[combat.EnemySpec], error) {
	loc, ok := m.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", locationID, combat.ErrCatalogUnavailable)
	}

	pool := make([]combat.Weighted[combat.EnemySpec], 0, len(loc.Enemies))
	for _, e := range loc.Enemies {
		tmpl := m.templates[e.TemplateID]
		pool = append(pool, combat.Weighted[combat.EnemySpec]{
			Item:   tmpl.Resolve(level),
			Weight: e.Weight,
		})
	}
	return pool, nil
}

// LootPool returns the weighted loot candidates for a location.
//
// Postcondition: Returns a non-empty pool, or ErrCatalogUnavailable for an
// unknown location.
func (m *Manager) LootPool(locationID string) ([]combat.Weighted[combat.LootEntry], error) {
	loc, ok := m.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", locationID, combat.ErrCatalogUnavailable)
	}

	pool := make([]combat.Weighted[combat.LootEntry], 0, len(loc.Loot))
	for _, e := range loc.Loot {
		pool = append(pool, combat.Weighted[combat.LootEntry]{
			Item:   combat.LootEntry{ID: e.ID, Kind: e.Kind},
			Weight: e.Weight,
		})
	}
	return pool, nil
}

// TemplateCount returns the number of loaded enemy templates.
func (m *Manager) TemplateCount() int { return len(m.templates) }

// LocationCount returns the number of loaded locations.
func (m *Manager) LocationCount() int { return len(m.locations) }
