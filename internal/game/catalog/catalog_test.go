package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberworks/arena/internal/game/catalog"
	"github.com/emberworks/arena/internal/game/combat"
)

const wolfYAML = `
id: ember-wolf
name: Ember Wolf
description: A smouldering pack hunter.
style: ember
base_attack: 12
base_defense: 8
base_hp: 60
level_scaling: 0.15
gold:
  min: 10
  max: 25
abilities:
  - burning-bite
`

const caldera = `
id: ashfall
name: Ashfall Caldera
enemies:
  - template: ember-wolf
    weight: 5
loot:
  - id: cinder-pelt
    kind: material
    weight: 3
  - id: flame-charm
    kind: item
    weight: 1
`

// TestLoadTemplateFromBytes verifies a well-formed template parses with all
// fields populated.
func TestLoadTemplateFromBytes(t *testing.T) {
	tmpl, err := catalog.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)

	assert.Equal(t, "ember-wolf", tmpl.ID)
	assert.Equal(t, "Ember Wolf", tmpl.Name)
	assert.Equal(t, "ember", tmpl.Style)
	assert.Equal(t, 12, tmpl.BaseAttack)
	assert.Equal(t, 60, tmpl.BaseHP)
	assert.Equal(t, 0.15, tmpl.LevelScaling)
	assert.Equal(t, 10, tmpl.Gold.Min)
	assert.Equal(t, []string{"burning-bite"}, tmpl.Abilities)
}

// TestTemplate_Validate_Rejections verifies each invariant violation is
// reported.
func TestTemplate_Validate_Rejections(t *testing.T) {
	base := func() *catalog.Template {
		return &catalog.Template{
			ID: "x", Name: "X", Style: "s",
			BaseAttack: 5, BaseDefense: 5, BaseHP: 10,
			Gold: catalog.GoldRange{Min: 1, Max: 2},
		}
	}

	cases := []struct {
		name   string
		mutate func(*catalog.Template)
	}{
		{"empty id", func(tm *catalog.Template) { tm.ID = "" }},
		{"empty name", func(tm *catalog.Template) { tm.Name = "" }},
		{"empty style", func(tm *catalog.Template) { tm.Style = "" }},
		{"zero attack", func(tm *catalog.Template) { tm.BaseAttack = 0 }},
		{"zero defense", func(tm *catalog.Template) { tm.BaseDefense = 0 }},
		{"zero hp", func(tm *catalog.Template) { tm.BaseHP = 0 }},
		{"negative scaling", func(tm *catalog.Template) { tm.LevelScaling = -0.1 }},
		{"negative gold", func(tm *catalog.Template) { tm.Gold.Min = -1 }},
		{"inverted gold range", func(tm *catalog.Template) { tm.Gold.Min = 5; tm.Gold.Max = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := base()
			tc.mutate(tmpl)
			assert.Error(t, tmpl.Validate())
		})
	}
	assert.NoError(t, base().Validate())
}

// TestTemplate_Resolve_Scaling verifies level scaling: level 1 keeps base
// stats, higher levels grow them, and the style and abilities carry over.
func TestTemplate_Resolve_Scaling(t *testing.T) {
	tmpl, err := catalog.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)

	lvl1 := tmpl.Resolve(1)
	assert.Equal(t, 12, lvl1.AttackPower)
	assert.Equal(t, 8, lvl1.DefensePower)
	assert.Equal(t, 60, lvl1.MaxHP)
	assert.Equal(t, 10, lvl1.GoldMin)
	assert.Equal(t, 1, lvl1.Level)

	// Level 5: factor 1 + 0.15*4 = 1.6.
	lvl5 := tmpl.Resolve(5)
	assert.Equal(t, 19, lvl5.AttackPower, "round(12*1.6)")
	assert.Equal(t, 96, lvl5.MaxHP, "60*1.6")
	assert.Equal(t, 16, lvl5.GoldMin, "gold scales with stats")
	assert.Equal(t, "ember", lvl5.Style)
	assert.Equal(t, []string{"burning-bite"}, lvl5.Abilities)
}

// TestLoadLocationFromBytes verifies a well-formed location parses and that
// bad pools are rejected.
func TestLoadLocationFromBytes(t *testing.T) {
	loc, err := catalog.LoadLocationFromBytes([]byte(caldera))
	require.NoError(t, err)
	assert.Equal(t, "ashfall", loc.ID)
	require.Len(t, loc.Enemies, 1)
	require.Len(t, loc.Loot, 2)
	assert.Equal(t, "item", loc.Loot[1].Kind)

	_, err = catalog.LoadLocationFromBytes([]byte("id: empty\nname: Empty\n"))
	assert.Error(t, err, "empty pools must be rejected")

	badKind := `
id: bad
name: Bad
enemies:
  - template: ember-wolf
    weight: 1
loot:
  - id: thing
    kind: artifact
    weight: 1
`
	_, err = catalog.LoadLocationFromBytes([]byte(badKind))
	assert.Error(t, err, "unknown loot kind must be rejected")
}

// TestNewManager_DanglingTemplateRef verifies a location referencing a
// missing template fails construction.
func TestNewManager_DanglingTemplateRef(t *testing.T) {
	loc, err := catalog.LoadLocationFromBytes([]byte(caldera))
	require.NoError(t, err)

	_, err = catalog.NewManager(nil, []*catalog.Location{loc})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ember-wolf")
}

// TestManager_Pools verifies the provider queries: scaled enemy pool,
// weighted loot pool, and ErrCatalogUnavailable for unknown locations.
func TestManager_Pools(t *testing.T) {
	tmpl, err := catalog.LoadTemplateFromBytes([]byte(wolfYAML))
	require.NoError(t, err)
	loc, err := catalog.LoadLocationFromBytes([]byte(caldera))
	require.NoError(t, err)

	mgr, err := catalog.NewManager([]*catalog.Template{tmpl}, []*catalog.Location{loc})
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.TemplateCount())
	assert.Equal(t, 1, mgr.LocationCount())

	pool, err := mgr.EnemyPool("ashfall", 5)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, 5.0, pool[0].Weight)
	assert.Equal(t, 19, pool[0].Item.AttackPower)

	loot, err := mgr.LootPool("ashfall")
	require.NoError(t, err)
	require.Len(t, loot, 2)
	assert.Equal(t, "cinder-pelt", loot[0].Item.ID)

	_, err = mgr.EnemyPool("nowhere", 1)
	assert.ErrorIs(t, err, combat.ErrCatalogUnavailable)
	_, err = mgr.LootPool("nowhere")
	assert.ErrorIs(t, err, combat.ErrCatalogUnavailable)
}

// TestLoadManager_FromDirectories verifies the directory loaders compose:
// content written to disk round-trips through LoadManager.
func TestLoadManager_FromDirectories(t *testing.T) {
	root := t.TempDir()
	enemiesDir := filepath.Join(root, "enemies")
	locationsDir := filepath.Join(root, "locations")
	require.NoError(t, os.MkdirAll(enemiesDir, 0o755))
	require.NoError(t, os.MkdirAll(locationsDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(enemiesDir, "wolf.yaml"), []byte(wolfYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(locationsDir, "ashfall.yaml"), []byte(caldera), 0o644))
	// Non-YAML files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(enemiesDir, "README.md"), []byte("notes"), 0o644))

	mgr, err := catalog.LoadManager(enemiesDir, locationsDir)
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.TemplateCount())
	assert.Equal(t, 1, mgr.LocationCount())
}
