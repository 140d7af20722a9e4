package combat

import "errors"

// Sentinel errors for the combat engine. Callers classify failures with
// errors.Is; messages carry operation context via fmt.Errorf wrapping at the
// call site.
var (
	// ErrValidation is returned when a request parameter is out of domain,
	// e.g. a combat level outside [MinLevel, MaxLevel].
	ErrValidation = errors.New("invalid combat request")

	// ErrConflict is returned when a player who already has an active session
	// tries to start another one. Callers must abandon the first explicitly.
	ErrConflict = errors.New("active combat session already exists")

	// ErrSessionNotFound is returned when a session id does not resolve to a
	// live session: it never existed, already completed, or expired.
	ErrSessionNotFound = errors.New("combat session not found")

	// ErrSessionTerminated is returned when an action targets a session that
	// has reached a terminal status.
	ErrSessionTerminated = errors.New("combat session already terminated")

	// ErrCatalogUnavailable is returned when the enemy or loot pool for a
	// location cannot be resolved. A session is never created against an
	// undefined enemy.
	ErrCatalogUnavailable = errors.New("combat catalog unavailable")

	// ErrEmptyPool is returned by the weighted selector when given no
	// candidates. With valid catalog data this is a programmer error.
	ErrEmptyPool = errors.New("weighted selection over empty pool")

	// ErrInvalidWeight is returned by the weighted selector when a weight is
	// not a positive finite number.
	ErrInvalidWeight = errors.New("weighted selection with invalid weight")
)
