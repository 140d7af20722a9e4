package combat

import (
	"fmt"
	"math"

	"github.com/emberworks/arena/internal/game/rng"
)

// Weighted pairs a candidate with its positive selection weight.
type Weighted[T any] struct {
	Item   T
	Weight float64
}

// PickWeighted selects exactly one candidate from items, with probability
// proportional to weight. The draw walks a cumulative-weight array with a
// single uniform sample in [0, sum).
//
// Precondition: src must be non-nil.
// Postcondition: returns ErrEmptyPool for an empty list, ErrInvalidWeight if
// any weight is <= 0 or the sum is not finite, and otherwise one of the
// candidates. Deterministic under a fixed Source.
func PickWeighted[T any](items []Weighted[T], src rng.Source) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrEmptyPool
	}

	cumulative := make([]float64, len(items))
	sum := 0.0
	for i, it := range items {
		if it.Weight <= 0 || math.IsNaN(it.Weight) || math.IsInf(it.Weight, 0) {
			return zero, fmt.Errorf("item %d has weight %v: %w", i, it.Weight, ErrInvalidWeight)
		}
		sum += it.Weight
		cumulative[i] = sum
	}
	if math.IsInf(sum, 0) {
		return zero, fmt.Errorf("weight sum overflows: %w", ErrInvalidWeight)
	}

	roll := src.Float64() * sum
	for i, c := range cumulative {
		if roll < c {
			return items[i].Item, nil
		}
	}
	// Float drift can leave roll == sum; the last bucket owns the boundary.
	return items[len(items)-1].Item, nil
}
