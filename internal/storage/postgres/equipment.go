package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEquipmentNotFound is returned when an equipment lookup yields no results.
var ErrEquipmentNotFound = errors.New("equipment not found")

// Equipment slots.
const (
	SlotWeapon  = "weapon"
	SlotArmor   = "armor"
	SlotTrinket = "trinket"
)

// EquipmentItem represents an equipment row in the database.
type EquipmentItem struct {
	ID            int64
	PlayerID      string
	Slot          string
	Name          string
	AttackBonus   int
	DefenseBonus  int
	HPBonus       int
	Accuracy      float64
	WeaponPattern string
	Equipped      bool
	CreatedAt     time.Time
}

// EquipmentRepository provides equipment persistence operations.
type EquipmentRepository struct {
	db *pgxpool.Pool
}

// NewEquipmentRepository creates an EquipmentRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEquipmentRepository(db *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// Add inserts an equipment item for a player and returns it with ID set.
//
// Precondition: item.PlayerID must reference an existing player; item.Slot
// must be one of the slot constants.
func (r *EquipmentRepository) Add(ctx context.Context, item *EquipmentItem) (*EquipmentItem, error) {
	var out EquipmentItem
	err := r.db.QueryRow(ctx, `
		INSERT INTO equipment
			(player_id, slot, name, attack_bonus, defense_bonus, hp_bonus,
			 accuracy, weapon_pattern, equipped)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, player_id, slot, name, attack_bonus, defense_bonus, hp_bonus,
		          accuracy, weapon_pattern, equipped, created_at`,
		item.PlayerID, item.Slot, item.Name, item.AttackBonus, item.DefenseBonus,
		item.HPBonus, item.Accuracy, item.WeaponPattern, item.Equipped,
	).Scan(
		&out.ID, &out.PlayerID, &out.Slot, &out.Name, &out.AttackBonus,
		&out.DefenseBonus, &out.HPBonus, &out.Accuracy, &out.WeaponPattern,
		&out.Equipped, &out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting equipment: %w", err)
	}
	return &out, nil
}

// ListByPlayer returns all equipment for the given player, equipped first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EquipmentRepository) ListByPlayer(ctx context.Context, playerID string) ([]*EquipmentItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, slot, name, attack_bonus, defense_bonus, hp_bonus,
		       accuracy, weapon_pattern, equipped, created_at
		FROM equipment WHERE player_id = $1
		ORDER BY equipped DESC, created_at ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	items := make([]*EquipmentItem, 0)
	for rows.Next() {
		var item EquipmentItem
		if err := rows.Scan(
			&item.ID, &item.PlayerID, &item.Slot, &item.Name, &item.AttackBonus,
			&item.DefenseBonus, &item.HPBonus, &item.Accuracy, &item.WeaponPattern,
			&item.Equipped, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning equipment row: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// SetEquipped toggles an item's equipped flag. Equipping an item unequips
// any other item in the same slot so a player never double-stacks a slot.
//
// Precondition: id must reference an item owned by playerID.
// Postcondition: Returns nil on success, ErrEquipmentNotFound if no row matched.
func (r *EquipmentRepository) SetEquipped(ctx context.Context, playerID string, id int64, equipped bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning equip transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if equipped {
		if _, err := tx.Exec(ctx, `
			UPDATE equipment SET equipped = FALSE
			WHERE player_id = $1 AND equipped
			  AND slot = (SELECT slot FROM equipment WHERE id = $2)`,
			playerID, id,
		); err != nil {
			return fmt.Errorf("unequipping slot: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE equipment SET equipped = $3
		WHERE id = $2 AND player_id = $1`,
		playerID, id, equipped,
	)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEquipmentNotFound
	}
	return tx.Commit(ctx)
}
