package combat

import "math"

// Damage multipliers per hit zone. Crit adds a uniform bonus in [0, 1.0) on
// top of critBaseMultiplier; injure's multiplier is the magnitude of the
// self-inflicted hit (see SelfInflicted).
const (
	injureMultiplier   = 0.5
	grazeMultiplier    = 0.6
	normalMultiplier   = 1.0
	critBaseMultiplier = 1.6
)

// mitigationByZone maps the defender's own timing result to the fraction of
// incoming damage removed. Bounds are fixed at 20%-80%.
var mitigationByZone = [zoneCount]float64{
	ZoneInjure: 0.20,
	ZoneMiss:   0.30,
	ZoneGraze:  0.45,
	ZoneNormal: 0.60,
	ZoneCrit:   0.80,
}

// ResolveAttack computes the damage dealt to the defender for a resolved hit
// zone. critRoll is consumed only when zone is ZoneCrit and must be in
// [0, 1.0); passing the value from rng.Source.Float64 satisfies this.
//
// A miss deals exactly 0 regardless of either side's power: it is not merely
// reduced to zero by defense. An injure also deals 0 to the defender; the
// acting side's self-inflicted damage comes from SelfInflicted instead.
//
// Postcondition: returns 0 for ZoneMiss and ZoneInjure, otherwise
// max(1, round(attackerPower*multiplier - defenderPower)).
func ResolveAttack(attackerPower, defenderPower int, zone HitZone, critRoll float64) int {
	var multiplier float64
	switch zone {
	case ZoneMiss, ZoneInjure:
		return 0
	case ZoneGraze:
		multiplier = grazeMultiplier
	case ZoneNormal:
		multiplier = normalMultiplier
	case ZoneCrit:
		multiplier = critBaseMultiplier + critRoll
	default:
		return 0
	}

	raw := float64(attackerPower) * multiplier
	final := int(math.Round(raw - float64(defenderPower)))
	if final < 1 {
		final = 1
	}
	return final
}

// SelfInflicted computes the damage the acting side takes from its own
// injure-zone result. Defense does not apply to a self-inflicted hit.
//
// Postcondition: returns max(1, round(attackerPower * 0.5)).
func SelfInflicted(attackerPower int) int {
	dmg := int(math.Round(float64(attackerPower) * injureMultiplier))
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// ResolveDefense applies the defender's timing-based mitigation to an
// incoming attack. The reduction is multiplicative and band-dependent,
// between 20% and 80%.
//
// Precondition: incomingDamage >= 0.
// Postcondition: returns round(incomingDamage * (1 - Mitigation(zone))),
// never negative.
func ResolveDefense(incomingDamage int, zone HitZone) int {
	if incomingDamage <= 0 {
		return 0
	}
	mitigated := int(math.Round(float64(incomingDamage) * (1 - Mitigation(zone))))
	if mitigated < 0 {
		mitigated = 0
	}
	return mitigated
}

// Mitigation returns the damage-reduction fraction for a defense-timing zone.
//
// Postcondition: return value is in [0.20, 0.80].
func Mitigation(zone HitZone) float64 {
	if zone >= ZoneInjure && zone <= ZoneCrit {
		return mitigationByZone[zone]
	}
	return mitigationByZone[ZoneInjure]
}
