package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberworks/arena/internal/storage/postgres"
	"github.com/emberworks/arena/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makeTestPlayer(name string) *postgres.Player {
	return &postgres.Player{
		Name:        name,
		Level:       3,
		BaseAttack:  50,
		BaseDefense: 20,
		BaseHP:      100,
	}
}

func TestPlayerRepository_Create(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewPlayerRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Level)
	assert.Equal(t, 50, created.BaseAttack)
	assert.Equal(t, int64(0), created.Gold)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestPlayerRepository_Create_DuplicateName(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewPlayerRepository(pool)
	ctx := context.Background()

	name := uniqueName("ash")
	_, err := repo.Create(ctx, makeTestPlayer(name))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeTestPlayer(name))
	assert.ErrorIs(t, err, postgres.ErrPlayerNameTaken)
}

func TestPlayerRepository_GetByID(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewPlayerRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, postgres.ErrPlayerNotFound)
}

func TestPlayerRepository_EquippedSnapshot_BareHanded(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewPlayerRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	snap, err := repo.EquippedSnapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.AttackPower)
	assert.Equal(t, 20, snap.DefensePower)
	assert.Equal(t, 100, snap.MaxHP)
	assert.Equal(t, 0.0, snap.Accuracy)
	assert.Equal(t, "balanced", snap.WeaponPattern)
}

func TestPlayerRepository_EquippedSnapshot_WithEquipment(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	equipment := postgres.NewEquipmentRepository(pool)
	ctx := context.Background()

	created, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	_, err = equipment.Add(ctx, &postgres.EquipmentItem{
		PlayerID:      created.ID,
		Slot:          postgres.SlotWeapon,
		Name:          "ember blade",
		AttackBonus:   25,
		Accuracy:      0.6,
		WeaponPattern: "precise",
		Equipped:      true,
	})
	require.NoError(t, err)

	_, err = equipment.Add(ctx, &postgres.EquipmentItem{
		PlayerID:     created.ID,
		Slot:         postgres.SlotArmor,
		Name:         "cinder mail",
		DefenseBonus: 15,
		HPBonus:      30,
		Equipped:     true,
	})
	require.NoError(t, err)

	// An unequipped item must not count.
	_, err = equipment.Add(ctx, &postgres.EquipmentItem{
		PlayerID:    created.ID,
		Slot:        postgres.SlotTrinket,
		Name:        "dull ring",
		AttackBonus: 100,
		Equipped:    false,
	})
	require.NoError(t, err)

	snap, err := players.EquippedSnapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, snap.AttackPower)
	assert.Equal(t, 35, snap.DefensePower)
	assert.Equal(t, 130, snap.MaxHP)
	assert.Equal(t, 0.6, snap.Accuracy)
	assert.Equal(t, "precise", snap.WeaponPattern)
}

func TestPlayerRepository_EquippedSnapshot_Missing(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewPlayerRepository(pool)

	_, err := repo.EquippedSnapshot(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, postgres.ErrPlayerNotFound)
}

func TestEquipmentRepository_SetEquipped_SwapsSlot(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	equipment := postgres.NewEquipmentRepository(pool)
	ctx := context.Background()

	created, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	first, err := equipment.Add(ctx, &postgres.EquipmentItem{
		PlayerID: created.ID, Slot: postgres.SlotWeapon,
		Name: "rusty sword", AttackBonus: 5, Equipped: true,
	})
	require.NoError(t, err)

	second, err := equipment.Add(ctx, &postgres.EquipmentItem{
		PlayerID: created.ID, Slot: postgres.SlotWeapon,
		Name: "ember blade", AttackBonus: 25, Equipped: false,
	})
	require.NoError(t, err)

	require.NoError(t, equipment.SetEquipped(ctx, created.ID, second.ID, true))

	items, err := equipment.ListByPlayer(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		switch item.ID {
		case first.ID:
			assert.False(t, item.Equipped, "old weapon must be unequipped")
		case second.ID:
			assert.True(t, item.Equipped)
		}
	}

	err = equipment.SetEquipped(ctx, created.ID, 999999, true)
	assert.ErrorIs(t, err, postgres.ErrEquipmentNotFound)
}

func TestRewardsRepository_ApplyReward(t *testing.T) {
	pool := testutil.NewPool(t)
	players := postgres.NewPlayerRepository(pool)
	rewards := postgres.NewRewardsRepository(pool)
	ctx := context.Background()

	created, err := players.Create(ctx, makeTestPlayer(uniqueName("ash")))
	require.NoError(t, err)

	require.NoError(t, rewards.ApplyReward(ctx, created.ID, 15, 45))
	require.NoError(t, rewards.ApplyReward(ctx, created.ID, 10, 30))

	got, err := players.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Gold)
	assert.Equal(t, int64(75), got.Experience)

	err = rewards.ApplyReward(ctx, "00000000-0000-0000-0000-000000000000", 1, 1)
	assert.ErrorIs(t, err, postgres.ErrPlayerNotFound)
}
