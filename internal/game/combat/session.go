// Package combat implements the turn-based arena combat session engine:
// weighted enemy and loot selection, tap-timing hit-zone resolution, damage
// and defense math, rating analytics, and the TTL-bound session lifecycle.
package combat

import (
	"context"
	"time"
)

// Combat level bounds a player may select when starting a session.
const (
	MinLevel = 1
	MaxLevel = 20
)

// Status is the session lifecycle state. StatusActive is the only
// non-terminal state; no transition leaves a terminal state.
type Status int

const (
	StatusActive Status = iota
	StatusVictory
	StatusDefeat
	StatusAbandoned
	StatusExpired
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool { return s != StatusActive }

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusVictory:
		return "victory"
	case StatusDefeat:
		return "defeat"
	case StatusAbandoned:
		return "abandoned"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Actor identifies which side performed a logged action.
type Actor int

const (
	ActorPlayer Actor = iota
	ActorEnemy
)

// String returns "player" or "enemy".
func (a Actor) String() string {
	if a == ActorEnemy {
		return "enemy"
	}
	return "player"
}

// ActionKind is the kind of logged combat action.
type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionDefend
)

// String returns "attack" or "defend".
func (k ActionKind) String() string {
	if k == ActionDefend {
		return "defend"
	}
	return "attack"
}

// LogEntry is one append-only record in a session's combat log. Entries are
// never mutated after creation; they feed both the client result payload and
// post-hoc analytics.
type LogEntry struct {
	Turn        int        `json:"turn"`
	Actor       Actor      `json:"actor"`
	Action      ActionKind `json:"action"`
	Zone        HitZone    `json:"zone"`
	RawDamage   int        `json:"raw_damage"`
	FinalDamage int        `json:"final_damage"`
	PlayerHP    int        `json:"player_hp"`
	EnemyHP     int        `json:"enemy_hp"`
}

// StatSnapshot is the player's equipped-item stat aggregate, frozen at
// session creation so mid-combat equipment changes cannot retroactively
// alter an in-progress fight.
type StatSnapshot struct {
	AttackPower   int
	DefensePower  int
	MaxHP         int
	Accuracy      float64 // in [0, 1]
	WeaponPattern string  // named weapon timing pattern
}

// EnemySpec is a resolved enemy instance: a catalog template scaled to the
// selected combat level.
type EnemySpec struct {
	TemplateID   string
	Name         string
	Level        int
	AttackPower  int
	DefensePower int
	MaxHP        int
	Style        string   // inherited by loot drops
	GoldMin      int
	GoldMax      int
	Abilities    []string // special-ability tags, reserved
}

// LootEntry is one weighted candidate in a location's loot pool.
type LootEntry struct {
	ID   string
	Kind string // "material" or "item"
}

// MaterialDrop is a generated material reward carrying the defeated enemy's
// style id.
type MaterialDrop struct {
	MaterialID string `json:"material_id"`
	InstanceID string `json:"instance_id"`
	Style      string `json:"style"`
}

// RewardBundle is the payout of a victorious session. Defeat yields the zero
// bundle. A bundle is never partially applied.
type RewardBundle struct {
	Gold   int            `json:"gold"`
	XP     int            `json:"xp"`
	Drops  []MaterialDrop `json:"drops"`
	ItemID string         `json:"item_id,omitempty"`
}

// Empty reports whether the bundle carries no rewards.
func (b RewardBundle) Empty() bool {
	return b.Gold == 0 && b.XP == 0 && len(b.Drops) == 0 && b.ItemID == ""
}

// Session is the unit of work: one player versus one procedurally selected
// enemy. Configuration fields are immutable once created; mutable state is
// only ever touched by the engine under the store's per-session lock.
type Session struct {
	ID       string
	PlayerID string

	// Immutable configuration snapshot.
	LocationID string
	Level      int
	Enemy      EnemySpec
	Stats      StatSnapshot

	// Derived once at creation, for analytics.
	PlayerRating   float64
	EnemyRating    float64
	WinProbability float64

	// Mutable combat state.
	Turn     int
	PlayerHP int
	EnemyHP  int
	Log      []LogEntry
	Status   Status

	CreatedAt    time.Time
	LastActiveAt time.Time

	// completing marks a completion in flight so a second caller cannot
	// draw and pay out the same terminal session. Cleared again if the
	// payout fails, keeping completion retryable.
	completing bool
}

// snapshot returns a defensive copy whose log cannot alias the live session.
func (s *Session) snapshot() *Session {
	cp := *s
	cp.Log = make([]LogEntry, len(s.Log))
	copy(cp.Log, s.Log)
	return &cp
}

// appendLog appends an entry recording the post-action HP values.
func (s *Session) appendLog(actor Actor, action ActionKind, zone HitZone, raw, final int) {
	s.Log = append(s.Log, LogEntry{
		Turn:        s.Turn,
		Actor:       actor,
		Action:      action,
		Zone:        zone,
		RawDamage:   raw,
		FinalDamage: final,
		PlayerHP:    s.PlayerHP,
		EnemyHP:     s.EnemyHP,
	})
}

// OutcomeKind tags the result variant of an attack or defense action.
type OutcomeKind int

const (
	OutcomeEnemyDamaged OutcomeKind = iota
	OutcomeVictory
	OutcomeDefeat
)

// String returns the lowercase outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "enemy_damaged"
	}
}

// AttackOutcome is the closed result variant of ExecuteAttack.
type AttackOutcome struct {
	Kind          OutcomeKind
	Zone          HitZone
	DamageDealt   int // damage applied to the enemy
	SelfDamage    int // injure-zone damage applied to the player
	CounterDamage int // enemy counterattack damage, 0 on a finishing blow
	PlayerHP      int
	EnemyHP       int
	Turn          int
	Entries       []LogEntry // log entries appended by this action
}

// DefenseOutcome is the closed result variant of ExecuteDefense.
type DefenseOutcome struct {
	Kind        OutcomeKind
	Zone        HitZone
	Mitigation  float64 // fraction of incoming damage removed
	DamageTaken int
	PlayerHP    int
	EnemyHP     int
	Turn        int
	Entries     []LogEntry
}

// HistoryRecord is the post-hoc analytics row written when a session ends.
type HistoryRecord struct {
	SessionID       string
	PlayerID        string
	LocationID      string
	Level           int
	EnemyTemplateID string
	Outcome         Status
	Turns           int
	WinProbability  float64
	Log             []LogEntry
	CompletedAt     time.Time
}

// EventType names a combat event published to the dialogue side-channel.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventPlayerHit      EventType = "player_hit"
	EventEnemyHit       EventType = "enemy_hit"
	EventPlayerInjured  EventType = "player_injured"
	EventVictory        EventType = "victory"
	EventDefeat         EventType = "defeat"
	EventAbandoned      EventType = "abandoned"
)

// Event is a combat occurrence published to the dialogue side-channel.
// Delivery is fire-and-forget: never awaited, never retried.
type Event struct {
	SessionID string
	PlayerID  string
	Type      EventType
	Detail    string
}

// StatProvider supplies the equipped-stat snapshot for a player. Called once
// at session creation; the result is frozen into the session.
type StatProvider interface {
	EquippedSnapshot(ctx context.Context, playerID string) (StatSnapshot, error)
}

// CatalogProvider serves read-only enemy and loot pools per location.
type CatalogProvider interface {
	// EnemyPool returns the weighted enemy candidates for a location, scaled
	// to the given combat level. An unknown location or empty pool fails
	// with ErrCatalogUnavailable.
	EnemyPool(locationID string, level int) ([]Weighted[EnemySpec], error)
	// LootPool returns the weighted loot candidates for a location.
	LootPool(locationID string) ([]Weighted[LootEntry], error)
}

// RewardSink applies gold and XP to the player's ledger. Invoked once per
// completed victorious session; idempotency is the sink's responsibility.
type RewardSink interface {
	ApplyReward(ctx context.Context, playerID string, gold, xp int) error
}

// HistoryRecorder persists the analytics record for a finished session.
// Failures are logged, never surfaced to the player.
type HistoryRecorder interface {
	Record(ctx context.Context, rec HistoryRecord) error
}

// Notifier receives combat events for the dialogue side-channel. Notify must
// not block; implementations drop rather than delay.
type Notifier interface {
	Notify(ev Event)
}
