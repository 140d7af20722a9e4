package combat

import (
	"fmt"
	"math"

	"github.com/emberworks/arena/internal/game/rng"
)

// HitZone is the discrete outcome band a timing-based action resolves into.
// The declaration order is the canonical band order on the timing circle.
type HitZone int

const (
	ZoneInjure HitZone = iota // self-inflicted penalty
	ZoneMiss
	ZoneGraze
	ZoneNormal
	ZoneCrit
)

// zoneCount is the number of hit zones on the timing circle.
const zoneCount = 5

// String returns the lowercase zone name.
//
// Postcondition: returns one of "injure", "miss", "graze", "normal", "crit",
// or "unknown" for out-of-range values.
func (z HitZone) String() string {
	switch z {
	case ZoneInjure:
		return "injure"
	case ZoneMiss:
		return "miss"
	case ZoneGraze:
		return "graze"
	case ZoneNormal:
		return "normal"
	case ZoneCrit:
		return "crit"
	default:
		return "unknown"
	}
}

const (
	// fullCircle is the total angular extent of the tap-timing circle.
	fullCircle = 360.0
	// minBandWidth is the smallest width any adjusted band may have.
	minBandWidth = 1.0
	// unfavorableFloorFrac is the fraction of an unfavorable band's base
	// width that survives even at accuracy 1.0. Keeping it above zero means
	// no accuracy stat can make injure or miss impossible.
	unfavorableFloorFrac = 0.25
	// shrinkExponent shapes the diminishing-returns curve for accuracy:
	// width = base * (floor + (1-floor) * (1-accuracy)^shrinkExponent).
	shrinkExponent = 1.5
)

// WeaponProfile defines the base angular band widths for a weapon pattern,
// in canonical zone order, before accuracy adjustment.
type WeaponProfile struct {
	Pattern string  `yaml:"pattern"`
	Injure  float64 `yaml:"injure"`
	Miss    float64 `yaml:"miss"`
	Graze   float64 `yaml:"graze"`
	Normal  float64 `yaml:"normal"`
	Crit    float64 `yaml:"crit"`
}

// baseWidths returns the profile's widths indexed by HitZone.
func (p WeaponProfile) baseWidths() [zoneCount]float64 {
	return [zoneCount]float64{p.Injure, p.Miss, p.Graze, p.Normal, p.Crit}
}

// Validate checks that the profile satisfies its invariants.
//
// Postcondition: returns nil iff every band width is >= minBandWidth and the
// widths sum to the full circle (within float tolerance).
func (p WeaponProfile) Validate() error {
	sum := 0.0
	for z, w := range p.baseWidths() {
		if w < minBandWidth {
			return fmt.Errorf("weapon profile %q: %s band width %.2f is below the %.0f degree minimum",
				p.Pattern, HitZone(z), w, minBandWidth)
		}
		sum += w
	}
	if math.Abs(sum-fullCircle) > 1e-6 {
		return fmt.Errorf("weapon profile %q: band widths sum to %.4f, want %.0f", p.Pattern, sum, fullCircle)
	}
	return nil
}

// ProfileForPattern returns the built-in profile for a named weapon pattern.
// Unknown patterns fall back to the balanced profile.
//
// Postcondition: the returned profile passes Validate.
func ProfileForPattern(pattern string) WeaponProfile {
	if p, ok := weaponPatterns[pattern]; ok {
		return p
	}
	return weaponPatterns["balanced"]
}

// weaponPatterns holds the built-in base band layouts. Each sums to 360.
var weaponPatterns = map[string]WeaponProfile{
	"balanced": {Pattern: "balanced", Injure: 40, Miss: 60, Graze: 110, Normal: 120, Crit: 30},
	"heavy":    {Pattern: "heavy", Injure: 55, Miss: 80, Graze: 95, Normal: 90, Crit: 40},
	"precise":  {Pattern: "precise", Injure: 25, Miss: 45, Graze: 100, Normal: 140, Crit: 50},
}

// AdjustedBands recomputes the profile's band widths for the given accuracy
// stat. Unfavorable bands (injure, miss) shrink toward a floor as accuracy
// rises; the freed degrees grow normal and crit proportionally to their base
// widths; graze absorbs the exact remainder so the widths always sum to the
// full circle.
//
// Precondition: profile passes Validate. Accuracy is clamped into [0, 1].
// Postcondition: every width >= minBandWidth and the widths sum to 360.
func AdjustedBands(profile WeaponProfile, accuracy float64) [zoneCount]float64 {
	acc := rng.Clamp01(accuracy)
	base := profile.baseWidths()

	shrink := unfavorableFloorFrac + (1-unfavorableFloorFrac)*math.Pow(1-acc, shrinkExponent)

	var adj [zoneCount]float64
	adj[ZoneInjure] = math.Max(minBandWidth, base[ZoneInjure]*shrink)
	adj[ZoneMiss] = math.Max(minBandWidth, base[ZoneMiss]*shrink)

	freed := (base[ZoneInjure] + base[ZoneMiss]) - (adj[ZoneInjure] + adj[ZoneMiss])
	favorable := base[ZoneNormal] + base[ZoneCrit]
	normalShare := base[ZoneNormal] / favorable
	adj[ZoneNormal] = base[ZoneNormal] + freed*normalShare
	adj[ZoneCrit] = base[ZoneCrit] + freed*(1-normalShare)

	adj[ZoneGraze] = fullCircle - (adj[ZoneInjure] + adj[ZoneMiss] + adj[ZoneNormal] + adj[ZoneCrit])
	if adj[ZoneGraze] < minBandWidth {
		// A degenerate graze band steals width back from normal, which is
		// guaranteed to have grown past the minimum already.
		adj[ZoneNormal] -= minBandWidth - adj[ZoneGraze]
		adj[ZoneGraze] = minBandWidth
	}
	return adj
}

// ResolveHitZone maps a tap position to its hit zone under the given weapon
// profile and accuracy stat. The tap is normalized into [0, 360) first, so
// every real-number input is valid. Pure function.
//
// Precondition: profile passes Validate.
// Postcondition: returns the band containing the normalized tap position;
// float drift at the 360/0 seam resolves to the first band in canonical order.
func ResolveHitZone(profile WeaponProfile, tapDegrees, accuracy float64) HitZone {
	pos := math.Mod(tapDegrees, fullCircle)
	if pos < 0 {
		pos += fullCircle
	}

	bands := AdjustedBands(profile, accuracy)
	cumulative := 0.0
	for z := ZoneInjure; z <= ZoneCrit; z++ {
		cumulative += bands[z]
		if pos < cumulative {
			return z
		}
	}
	return ZoneInjure
}
