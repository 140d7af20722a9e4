package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberworks/arena/internal/game/combat"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerNameTaken is returned when creating a player with a name already in use.
var ErrPlayerNameTaken = errors.New("player name already taken")

// Player represents a player row in the database.
type Player struct {
	ID          string
	Name        string
	Level       int
	Gold        int64
	Experience  int64
	BaseAttack  int
	BaseDefense int
	BaseHP      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlayerRepository provides player persistence operations, including the
// equipped-stat snapshot the combat engine freezes at session start.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player and returns it with ID and timestamps set.
//
// Precondition: p.Name must be non-empty; base stats must be >= 1.
// Postcondition: Returns the created player with ID set, or ErrPlayerNameTaken on duplicate.
func (r *PlayerRepository) Create(ctx context.Context, p *Player) (*Player, error) {
	var out Player
	err := r.db.QueryRow(ctx, `
		INSERT INTO players
			(name, level, gold, experience, base_attack, base_defense, base_hp)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, name, level, gold, experience,
		          base_attack, base_defense, base_hp, created_at, updated_at`,
		p.Name, p.Level, p.Gold, p.Experience, p.BaseAttack, p.BaseDefense, p.BaseHP,
	).Scan(
		&out.ID, &out.Name, &out.Level, &out.Gold, &out.Experience,
		&out.BaseAttack, &out.BaseDefense, &out.BaseHP, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPlayerNameTaken
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a player by its primary key.
//
// Precondition: id must be a valid UUID string.
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := r.db.QueryRow(ctx, `
		SELECT id, name, level, gold, experience,
		       base_attack, base_defense, base_hp, created_at, updated_at
		FROM players WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Name, &p.Level, &p.Gold, &p.Experience,
		&p.BaseAttack, &p.BaseDefense, &p.BaseHP, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return &p, nil
}

// EquippedSnapshot computes the player's effective combat stats: base stats
// plus the bonuses of all equipped items, with accuracy and weapon pattern
// taken from the equipped weapon. Players without a weapon fight bare-handed
// with zero accuracy and the balanced pattern.
//
// Precondition: id must be a valid UUID string.
// Postcondition: Returns a complete snapshot or ErrPlayerNotFound.
func (r *PlayerRepository) EquippedSnapshot(ctx context.Context, id string) (combat.StatSnapshot, error) {
	var snap combat.StatSnapshot
	err := r.db.QueryRow(ctx, `
		SELECT p.base_attack  + COALESCE(SUM(e.attack_bonus), 0),
		       p.base_defense + COALESCE(SUM(e.defense_bonus), 0),
		       p.base_hp      + COALESCE(SUM(e.hp_bonus), 0),
		       COALESCE(MAX(e.accuracy) FILTER (WHERE e.slot = 'weapon'), 0),
		       COALESCE(MAX(e.weapon_pattern) FILTER (WHERE e.slot = 'weapon'), 'balanced')
		FROM players p
		LEFT JOIN equipment e ON e.player_id = p.id AND e.equipped
		WHERE p.id = $1
		GROUP BY p.id`,
		id,
	).Scan(
		&snap.AttackPower, &snap.DefensePower, &snap.MaxHP,
		&snap.Accuracy, &snap.WeaponPattern,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.StatSnapshot{}, ErrPlayerNotFound
		}
		return combat.StatSnapshot{}, fmt.Errorf("querying equipped snapshot: %w", err)
	}
	return snap, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
