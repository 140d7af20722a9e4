package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/emberworks/arena/internal/game/combat"
)

// TestWinProbability_EqualRatings verifies two equal ratings give exactly 0.5.
func TestWinProbability_EqualRatings(t *testing.T) {
	assert.Equal(t, 0.5, combat.WinProbability(1200, 1200))
	assert.Equal(t, 0.5, combat.WinProbability(0, 0))
}

// TestWinProbability_KnownSpread verifies the standard logistic pairing:
// a 400-point advantage wins with probability 10/11.
func TestWinProbability_KnownSpread(t *testing.T) {
	assert.InDelta(t, 10.0/11.0, combat.WinProbability(1600, 1200), 1e-12)
	assert.InDelta(t, 1.0/11.0, combat.WinProbability(1200, 1600), 1e-12)
}

// TestWinProbability_Complementary verifies P(a beats b) + P(b beats a) == 1.
func TestWinProbability_Complementary(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(0, 5000).Draw(rt, "a")
		b := rapid.Float64Range(0, 5000).Draw(rt, "b")
		sum := combat.WinProbability(a, b) + combat.WinProbability(b, a)
		assert.InDelta(rt, 1.0, sum, 1e-9)
	})
}

// TestRating_MonotonicInEachStat verifies a strictly better stat line never
// lowers the rating.
func TestRating_MonotonicInEachStat(t *testing.T) {
	base := combat.Rating(50, 40, 200)
	assert.Greater(t, combat.Rating(60, 40, 200), base)
	assert.Greater(t, combat.Rating(50, 50, 200), base)
	assert.Greater(t, combat.Rating(50, 40, 250), base)
}

// TestRating_ZeroStats verifies degenerate stat lines rate as zero rather
// than producing NaN from the power-law combination.
func TestRating_ZeroStats(t *testing.T) {
	assert.Equal(t, 0.0, combat.Rating(0, 40, 200))
	assert.Equal(t, 0.0, combat.Rating(50, 0, 200))
	assert.Equal(t, 0.0, combat.Rating(50, 40, 0))
	assert.Equal(t, 0.0, combat.Rating(-1, -1, -1))
}

// TestRating_StrongerLineWinsMoreOften verifies the two estimators compose:
// a clearly stronger stat line gets a win probability above 0.5.
func TestRating_StrongerLineWinsMoreOften(t *testing.T) {
	strong := combat.Rating(120, 90, 500)
	weak := combat.Rating(40, 30, 150)
	p := combat.WinProbability(strong, weak)
	assert.Greater(t, p, 0.5)
	assert.Less(t, p, 1.0)
}
