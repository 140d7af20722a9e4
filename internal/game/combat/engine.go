package combat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/game/rng"
)

// Reward tuning: XP per enemy level plus XP per selected combat level, and
// the bounds on the number of material draws per victory.
const (
	xpPerEnemyLevel  = 15
	xpPerCombatLevel = 10
	minRewardDraws   = 1
	maxRewardDraws   = 3
)

// Engine orchestrates combat sessions: creation, attack and defense
// resolution, terminal-state detection, and reward finalization. All session
// mutations run under the store's per-session lock, so concurrent requests
// against the same session serialize while distinct sessions proceed in
// parallel.
type Engine struct {
	store    SessionStore
	stats    StatProvider
	catalog  CatalogProvider
	rewards  RewardSink
	history  HistoryRecorder
	notifier Notifier
	src      rng.Source
	logger   *zap.Logger
}

// NewEngine creates a combat Engine.
//
// Precondition: store, stats, catalog, rewards, src, and logger must be
// non-nil. history and notifier may be nil; the corresponding side effects
// are skipped.
func NewEngine(
	store SessionStore,
	stats StatProvider,
	catalog CatalogProvider,
	rewards RewardSink,
	history HistoryRecorder,
	notifier Notifier,
	src rng.Source,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:    store,
		stats:    stats,
		catalog:  catalog,
		rewards:  rewards,
		history:  history,
		notifier: notifier,
		src:      src,
		logger:   logger,
	}
}

// StartCombat creates a new session for the player at the given location and
// combat level.
//
// Precondition: playerID and locationID must be non-empty; selectedLevel must
// be in [MinLevel, MaxLevel].
// Postcondition: on success a session in StatusActive exists in the store at
// full HP for both sides and a snapshot is returned. On any failure no
// session is left behind. A player with an active session fails ErrConflict;
// callers must abandon explicitly first.
func (e *Engine) StartCombat(ctx context.Context, playerID, locationID string, selectedLevel int) (*Session, error) {
	if playerID == "" || locationID == "" {
		return nil, fmt.Errorf("player id and location id are required: %w", ErrValidation)
	}
	if selectedLevel < MinLevel || selectedLevel > MaxLevel {
		return nil, fmt.Errorf("combat level %d outside [%d, %d]: %w",
			selectedLevel, MinLevel, MaxLevel, ErrValidation)
	}
	if existing, ok := e.store.ActiveSessionID(playerID); ok {
		return nil, fmt.Errorf("player %q already in session %q: %w", playerID, existing, ErrConflict)
	}

	snapshot, err := e.stats.EquippedSnapshot(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading stat snapshot for %q: %w", playerID, err)
	}

	pool, err := e.catalog.EnemyPool(locationID, selectedLevel)
	if err != nil {
		return nil, fmt.Errorf("resolving enemy pool for %q level %d: %w", locationID, selectedLevel, err)
	}
	enemy, err := PickWeighted(pool, e.src)
	if err != nil {
		return nil, fmt.Errorf("selecting enemy for %q: %w", locationID, err)
	}

	playerRating := Rating(snapshot.AttackPower, snapshot.DefensePower, snapshot.MaxHP)
	enemyRating := Rating(enemy.AttackPower, enemy.DefensePower, enemy.MaxHP)

	sess := &Session{
		ID:             uuid.NewString(),
		PlayerID:       playerID,
		LocationID:     locationID,
		Level:          selectedLevel,
		Enemy:          enemy,
		Stats:          snapshot,
		PlayerRating:   playerRating,
		EnemyRating:    enemyRating,
		WinProbability: WinProbability(playerRating, enemyRating),
		Turn:           1,
		PlayerHP:       snapshot.MaxHP,
		EnemyHP:        enemy.MaxHP,
		Status:         StatusActive,
		CreatedAt:      time.Now(),
	}

	if err := e.store.Create(sess); err != nil {
		return nil, err
	}

	e.logger.Info("combat session started",
		zap.String("session_id", sess.ID),
		zap.String("player_id", playerID),
		zap.String("location_id", locationID),
		zap.Int("level", selectedLevel),
		zap.String("enemy", enemy.TemplateID),
		zap.Float64("win_probability", sess.WinProbability),
	)
	e.notify(Event{
		SessionID: sess.ID,
		PlayerID:  playerID,
		Type:      EventSessionStarted,
		Detail:    fmt.Sprintf("%s challenges a level %d %s", playerID, selectedLevel, enemy.Name),
	})

	return sess.snapshot(), nil
}

// ExecuteAttack resolves one player attack: hit zone from tap timing, damage
// to the enemy, and — unless the blow finishes the enemy — the automatic
// counterattack. A player miss does not forfeit the enemy's counter.
//
// Precondition: the session must exist, be owned by playerID, and be active.
// Postcondition: the returned outcome's Kind tags victory, defeat, or an
// ongoing fight; all HP mutations and log appends happened atomically under
// the session lock.
func (e *Engine) ExecuteAttack(ctx context.Context, sessionID, playerID string, tapDegrees float64) (AttackOutcome, error) {
	var out AttackOutcome
	err := e.store.Update(sessionID, func(s *Session) error {
		if err := e.authorize(s, playerID); err != nil {
			return err
		}

		logStart := len(s.Log)
		profile := ProfileForPattern(s.Stats.WeaponPattern)
		zone := ResolveHitZone(profile, tapDegrees, s.Stats.Accuracy)
		out.Zone = zone

		// Injure: the acting player hurts themselves; the enemy is untouched
		// by the swing itself.
		if zone == ZoneInjure {
			out.SelfDamage = SelfInflicted(s.Stats.AttackPower)
			s.PlayerHP = floorHP(s.PlayerHP - out.SelfDamage)
			s.appendLog(ActorPlayer, ActionAttack, zone, out.SelfDamage, 0)
		} else {
			critRoll := 0.0
			if zone == ZoneCrit {
				critRoll = e.src.Float64()
			}
			dmg := ResolveAttack(s.Stats.AttackPower, s.Enemy.DefensePower, zone, critRoll)
			out.DamageDealt = dmg
			s.EnemyHP = floorHP(s.EnemyHP - dmg)
			s.appendLog(ActorPlayer, ActionAttack, zone, dmg, dmg)
		}

		switch {
		case s.EnemyHP == 0:
			// Finishing blow: no counterattack.
			s.Status = StatusVictory
			out.Kind = OutcomeVictory
		case s.PlayerHP == 0:
			// The injure penalty alone can end the fight.
			s.Status = StatusDefeat
			out.Kind = OutcomeDefeat
		default:
			// Automatic counter at baseline: no defend action was taken, so
			// no mitigation applies.
			counter := ResolveAttack(s.Enemy.AttackPower, s.Stats.DefensePower, ZoneNormal, 0)
			out.CounterDamage = counter
			s.PlayerHP = floorHP(s.PlayerHP - counter)
			s.appendLog(ActorEnemy, ActionAttack, ZoneNormal, counter, counter)
			if s.PlayerHP == 0 {
				s.Status = StatusDefeat
				out.Kind = OutcomeDefeat
			} else {
				out.Kind = OutcomeEnemyDamaged
			}
		}

		s.Turn++
		out.PlayerHP = s.PlayerHP
		out.EnemyHP = s.EnemyHP
		out.Turn = s.Turn
		out.Entries = append([]LogEntry(nil), s.Log[logStart:]...)
		return nil
	})
	if err != nil {
		return AttackOutcome{}, err
	}

	e.logAction(sessionID, playerID, "attack", out.Zone, out.Kind)
	e.notifyAttack(sessionID, playerID, out)
	return out, nil
}

// ExecuteDefense resolves one defensive turn: the player's own timing maps
// to a mitigation fraction, which is applied multiplicatively to the enemy's
// attack. A defense never deals player-to-enemy damage.
//
// Precondition: same as ExecuteAttack.
func (e *Engine) ExecuteDefense(ctx context.Context, sessionID, playerID string, tapDegrees float64) (DefenseOutcome, error) {
	var out DefenseOutcome
	err := e.store.Update(sessionID, func(s *Session) error {
		if err := e.authorize(s, playerID); err != nil {
			return err
		}

		logStart := len(s.Log)
		profile := ProfileForPattern(s.Stats.WeaponPattern)
		zone := ResolveHitZone(profile, tapDegrees, s.Stats.Accuracy)
		out.Zone = zone
		out.Mitigation = Mitigation(zone)

		incoming := ResolveAttack(s.Enemy.AttackPower, s.Stats.DefensePower, ZoneNormal, 0)
		taken := ResolveDefense(incoming, zone)
		out.DamageTaken = taken
		s.PlayerHP = floorHP(s.PlayerHP - taken)
		s.appendLog(ActorEnemy, ActionDefend, zone, incoming, taken)

		if s.PlayerHP == 0 {
			s.Status = StatusDefeat
			out.Kind = OutcomeDefeat
		} else {
			out.Kind = OutcomeEnemyDamaged
		}

		s.Turn++
		out.PlayerHP = s.PlayerHP
		out.EnemyHP = s.EnemyHP
		out.Turn = s.Turn
		out.Entries = append([]LogEntry(nil), s.Log[logStart:]...)
		return nil
	})
	if err != nil {
		return DefenseOutcome{}, err
	}

	e.logAction(sessionID, playerID, "defend", out.Zone, out.Kind)
	if out.Kind == OutcomeDefeat {
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventDefeat,
			Detail: "the defender's guard breaks"})
	} else {
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventPlayerHit,
			Detail: fmt.Sprintf("a guarded blow lands for %d", out.DamageTaken)})
	}
	return out, nil
}

// CompleteCombat finalizes a session that has reached victory or defeat.
// Victory generates the reward bundle (1-3 weighted material draws inheriting
// the enemy's style, gold in the enemy's configured range, XP) and applies it
// through the reward sink; defeat yields the empty bundle. The session is
// deleted only after the sink succeeds, so a sink failure leaves the session
// replayable.
//
// Precondition: the session must exist, be owned by playerID, and have a
// terminal victory or defeat status.
// Postcondition: on success the session is gone from the store and the full
// combat log is returned alongside the bundle. The bundle is never partially
// applied, and concurrent completions of one session pay out at most once;
// the losing caller fails with ErrSessionTerminated.
func (e *Engine) CompleteCombat(ctx context.Context, sessionID, playerID string) (RewardBundle, []LogEntry, error) {
	var (
		bundle  RewardBundle
		log     []LogEntry
		outcome Status
		record  HistoryRecord
	)

	err := e.store.Update(sessionID, func(s *Session) error {
		if s.PlayerID != playerID {
			return fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
		}
		if s.Status != StatusVictory && s.Status != StatusDefeat {
			return fmt.Errorf("session %q is still %s: %w", sessionID, s.Status, ErrValidation)
		}
		if s.completing {
			return fmt.Errorf("session %q completion already in flight: %w", sessionID, ErrSessionTerminated)
		}
		s.completing = true

		outcome = s.Status
		log = append([]LogEntry(nil), s.Log...)
		record = HistoryRecord{
			SessionID:       s.ID,
			PlayerID:        s.PlayerID,
			LocationID:      s.LocationID,
			Level:           s.Level,
			EnemyTemplateID: s.Enemy.TemplateID,
			Outcome:         s.Status,
			Turns:           s.Turn,
			WinProbability:  s.WinProbability,
			Log:             log,
			CompletedAt:     time.Now(),
		}

		if s.Status == StatusVictory {
			b, err := e.drawRewards(s)
			if err != nil {
				return err
			}
			bundle = b
		}
		return nil
	})
	if err != nil {
		return RewardBundle{}, nil, err
	}

	if outcome == StatusVictory {
		if err := e.rewards.ApplyReward(ctx, playerID, bundle.Gold, bundle.XP); err != nil {
			// Session stays in the store; clear the in-flight mark so the
			// player can retry completion.
			_ = e.store.Update(sessionID, func(s *Session) error {
				s.completing = false
				return nil
			})
			return RewardBundle{}, nil, fmt.Errorf("applying reward for session %q: %w", sessionID, err)
		}
	}

	e.store.Delete(sessionID)
	e.recordHistory(ctx, record)

	eventType := EventDefeat
	detail := "the challenger falls"
	if outcome == StatusVictory {
		eventType = EventVictory
		detail = fmt.Sprintf("victory over %s, %d gold claimed", record.EnemyTemplateID, bundle.Gold)
	}
	e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: eventType, Detail: detail})

	e.logger.Info("combat session completed",
		zap.String("session_id", sessionID),
		zap.String("player_id", playerID),
		zap.String("outcome", outcome.String()),
		zap.Int("gold", bundle.Gold),
		zap.Int("xp", bundle.XP),
		zap.Int("drops", len(bundle.Drops)),
	)
	return bundle, log, nil
}

// AbandonCombat terminates a session early with no reward. If an action and
// an abandon race, whichever acquires the session lock first wins; the loser
// observes a terminal-state failure.
//
// Precondition: the session must exist and be owned by playerID.
func (e *Engine) AbandonCombat(ctx context.Context, sessionID, playerID string) error {
	err := e.store.Update(sessionID, func(s *Session) error {
		if s.PlayerID != playerID {
			return fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
		}
		if s.Status.Terminal() {
			return fmt.Errorf("session %q is %s: %w", sessionID, s.Status, ErrSessionTerminated)
		}
		s.Status = StatusAbandoned
		return nil
	})
	if err != nil {
		return err
	}

	e.store.Delete(sessionID)
	e.logger.Info("combat session abandoned",
		zap.String("session_id", sessionID),
		zap.String("player_id", playerID),
	)
	e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventAbandoned,
		Detail: "the challenger withdraws"})
	return nil
}

// SessionForRecovery returns the full session state for a reconnecting
// client. A missing, expired, or foreign session reports (nil, false) rather
// than an error, so the client can silently start fresh.
func (e *Engine) SessionForRecovery(sessionID, playerID string) (*Session, bool) {
	sess, ok := e.store.Get(sessionID)
	if !ok || sess.PlayerID != playerID {
		return nil, false
	}
	return sess, true
}

// authorize validates ownership and liveness inside an Update callback.
// Foreign sessions report not-found rather than leaking their existence.
func (e *Engine) authorize(s *Session, playerID string) error {
	if s.PlayerID != playerID {
		return fmt.Errorf("session %q: %w", s.ID, ErrSessionNotFound)
	}
	if s.Status.Terminal() {
		return fmt.Errorf("session %q is %s: %w", s.ID, s.Status, ErrSessionTerminated)
	}
	return nil
}

// drawRewards builds the victory bundle: 1-3 weighted loot draws, gold in
// the enemy's configured range, and XP from the level constants. Material
// draws inherit the enemy's style id; the first item-kind draw fills the
// bundle's item slot and further item draws are discarded.
func (e *Engine) drawRewards(s *Session) (RewardBundle, error) {
	pool, err := e.catalog.LootPool(s.LocationID)
	if err != nil {
		return RewardBundle{}, fmt.Errorf("resolving loot pool for %q: %w", s.LocationID, err)
	}

	bundle := RewardBundle{
		XP: xpPerEnemyLevel*s.Enemy.Level + xpPerCombatLevel*s.Level,
	}

	goldSpread := s.Enemy.GoldMax - s.Enemy.GoldMin
	bundle.Gold = s.Enemy.GoldMin
	if goldSpread > 0 {
		bundle.Gold += e.src.Intn(goldSpread + 1)
	}

	draws := minRewardDraws + e.src.Intn(maxRewardDraws-minRewardDraws+1)
	for i := 0; i < draws; i++ {
		entry, err := PickWeighted(pool, e.src)
		if err != nil {
			return RewardBundle{}, fmt.Errorf("drawing loot for %q: %w", s.LocationID, err)
		}
		if entry.Kind == "item" {
			if bundle.ItemID == "" {
				bundle.ItemID = entry.ID
			}
			continue
		}
		bundle.Drops = append(bundle.Drops, MaterialDrop{
			MaterialID: entry.ID,
			InstanceID: uuid.NewString(),
			Style:      s.Enemy.Style,
		})
	}
	return bundle, nil
}

// recordHistory persists the analytics record best-effort.
func (e *Engine) recordHistory(ctx context.Context, rec HistoryRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, rec); err != nil {
		e.logger.Warn("recording combat history",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
	}
}

// notify publishes an event to the dialogue side-channel, if configured.
func (e *Engine) notify(ev Event) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ev)
}

// notifyAttack maps an attack outcome to its side-channel event.
func (e *Engine) notifyAttack(sessionID, playerID string, out AttackOutcome) {
	switch {
	case out.Kind == OutcomeVictory:
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventVictory,
			Detail: fmt.Sprintf("a finishing %s blow for %d", out.Zone, out.DamageDealt)})
	case out.Kind == OutcomeDefeat:
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventDefeat,
			Detail: "the challenger is struck down"})
	case out.Zone == ZoneInjure:
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventPlayerInjured,
			Detail: fmt.Sprintf("a wild swing backfires for %d", out.SelfDamage)})
	default:
		e.notify(Event{SessionID: sessionID, PlayerID: playerID, Type: EventEnemyHit,
			Detail: fmt.Sprintf("a %s hit lands for %d", out.Zone, out.DamageDealt)})
	}
}

// logAction emits the per-action debug log line.
func (e *Engine) logAction(sessionID, playerID, action string, zone HitZone, kind OutcomeKind) {
	e.logger.Debug("combat action resolved",
		zap.String("session_id", sessionID),
		zap.String("player_id", playerID),
		zap.String("action", action),
		zap.String("zone", zone.String()),
		zap.String("outcome", kind.String()),
	)
}

// floorHP clamps hp at zero.
func floorHP(hp int) int {
	if hp < 0 {
		return 0
	}
	return hp
}
