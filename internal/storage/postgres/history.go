package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberworks/arena/internal/game/combat"
)

// HistoryRepository persists finished combat sessions for analytics. It
// implements the engine's history recorder.
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository creates a HistoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts the analytics row for a finished session. The combat log
// is stored as JSONB so queries can dig into individual turns.
//
// Precondition: rec.SessionID and rec.PlayerID must be non-empty.
func (r *HistoryRepository) Record(ctx context.Context, rec combat.HistoryRecord) error {
	logJSON, err := json.Marshal(rec.Log)
	if err != nil {
		return fmt.Errorf("marshalling combat log: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO combat_history
			(session_id, player_id, location_id, level, enemy_template_id,
			 outcome, turns, win_probability, log, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.SessionID, rec.PlayerID, rec.LocationID, rec.Level, rec.EnemyTemplateID,
		rec.Outcome.String(), rec.Turns, rec.WinProbability, logJSON, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting combat history: %w", err)
	}
	return nil
}

// HistoryRow is a persisted combat history record as read back from the
// database.
type HistoryRow struct {
	ID              int64
	SessionID       string
	PlayerID        string
	LocationID      string
	Level           int
	EnemyTemplateID string
	Outcome         string
	Turns           int
	WinProbability  float64
	Log             []combat.LogEntry
	CompletedAt     time.Time
}

// ListByPlayer returns the most recent history rows for a player, newest
// first, capped at limit.
//
// Precondition: limit must be >= 1.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *HistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*HistoryRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, player_id, location_id, level, enemy_template_id,
		       outcome, turns, win_probability, log, completed_at
		FROM combat_history
		WHERE player_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combat history: %w", err)
	}
	defer rows.Close()

	records := make([]*HistoryRow, 0)
	for rows.Next() {
		var rec HistoryRow
		var logJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.PlayerID, &rec.LocationID, &rec.Level,
			&rec.EnemyTemplateID, &rec.Outcome, &rec.Turns, &rec.WinProbability,
			&logJSON, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if err := json.Unmarshal(logJSON, &rec.Log); err != nil {
			return nil, fmt.Errorf("unmarshalling combat log: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
