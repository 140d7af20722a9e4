package combat

import "math"

// Rating constants: the rating is a weighted geometric mean of attack,
// defense, and HP, scaled so that typical mid-game stat lines land in the
// few-hundred range an Elo-style pairing expects.
const (
	ratingScale     = 40.0
	attackExponent  = 0.40
	defenseExponent = 0.25
	hpExponent      = 0.35
	logisticSpread  = 400.0
)

// Rating computes a scalar strength estimate from aggregate stats. Used only
// for win-probability analytics; it never gates whether combat proceeds.
//
// Postcondition: returns 0 when any stat is <= 0, otherwise
// ratingScale * atk^0.40 * def^0.25 * hp^0.35.
func Rating(attackPower, defensePower, hp int) float64 {
	if attackPower <= 0 || defensePower <= 0 || hp <= 0 {
		return 0
	}
	return ratingScale *
		math.Pow(float64(attackPower), attackExponent) *
		math.Pow(float64(defensePower), defenseExponent) *
		math.Pow(float64(hp), hpExponent)
}

// WinProbability estimates the chance that a side with ratingA beats a side
// with ratingB, via the standard logistic pairing with a 400-point spread.
//
// Postcondition: return value is in (0, 1); equal ratings yield exactly 0.5.
func WinProbability(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, -(ratingA-ratingB)/logisticSpread))
}
