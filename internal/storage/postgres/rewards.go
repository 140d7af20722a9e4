package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardsRepository applies combat rewards to the player ledger. It
// implements the engine's reward sink.
type RewardsRepository struct {
	db *pgxpool.Pool
}

// NewRewardsRepository creates a RewardsRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRewardsRepository(db *pgxpool.Pool) *RewardsRepository {
	return &RewardsRepository{db: db}
}

// ApplyReward credits gold and experience to the player in a single update.
//
// Precondition: gold and xp must be >= 0.
// Postcondition: Returns nil on success, ErrPlayerNotFound if the player
// does not exist. On error the ledger is unchanged.
func (r *RewardsRepository) ApplyReward(ctx context.Context, playerID string, gold, xp int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE players
		SET gold = gold + $2, experience = experience + $3, updated_at = NOW()
		WHERE id = $1`,
		playerID, gold, xp,
	)
	if err != nil {
		return fmt.Errorf("applying reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
