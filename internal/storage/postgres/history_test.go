package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberworks/arena/internal/game/combat"
	"github.com/emberworks/arena/internal/storage/postgres"
	"github.com/emberworks/arena/internal/testutil"
)

func makeHistoryRecord(playerID string, completedAt time.Time) combat.HistoryRecord {
	return combat.HistoryRecord{
		SessionID:       uuid.NewString(),
		PlayerID:        playerID,
		LocationID:      "ashfall",
		Level:           3,
		EnemyTemplateID: "ember-wolf",
		Outcome:         combat.StatusVictory,
		Turns:           4,
		WinProbability:  0.62,
		Log: []combat.LogEntry{
			{Turn: 1, Actor: combat.ActorPlayer, Zone: combat.ZoneNormal, RawDamage: 100, FinalDamage: 70},
			{Turn: 1, Actor: combat.ActorEnemy, Zone: combat.ZoneNormal, RawDamage: 40, FinalDamage: 10},
		},
		CompletedAt: completedAt,
	}
}

func TestHistoryRepository_RecordAndList(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	history := postgres.NewHistoryRepository(pool)
	ctx := context.Background()

	player, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Microsecond)
	older := makeHistoryRecord(player.ID, base.Add(-time.Hour))
	newer := makeHistoryRecord(player.ID, base)
	require.NoError(t, history.Record(ctx, older))
	require.NoError(t, history.Record(ctx, newer))

	rows, err := history.ListByPlayer(ctx, player.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	assert.Equal(t, newer.SessionID, rows[0].SessionID)
	assert.Equal(t, older.SessionID, rows[1].SessionID)

	got := rows[0]
	assert.Equal(t, "ashfall", got.LocationID)
	assert.Equal(t, "ember-wolf", got.EnemyTemplateID)
	assert.Equal(t, combat.StatusVictory.String(), got.Outcome)
	assert.Equal(t, 4, got.Turns)
	assert.InDelta(t, 0.62, got.WinProbability, 1e-9)
	require.Len(t, got.Log, 2)
	assert.Equal(t, combat.ActorPlayer, got.Log[0].Actor)
	assert.Equal(t, 70, got.Log[0].FinalDamage)
}

func TestHistoryRepository_ListByPlayer_Limit(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	history := postgres.NewHistoryRepository(pool)
	ctx := context.Background()

	player, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		rec := makeHistoryRecord(player.ID, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, history.Record(ctx, rec))
	}

	rows, err := history.ListByPlayer(ctx, player.ID, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHistoryRepository_ListByPlayer_Empty(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	history := postgres.NewHistoryRepository(pool)
	ctx := context.Background()

	player, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	rows, err := history.ListByPlayer(ctx, player.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
