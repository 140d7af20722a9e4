// Package testutil provides test helpers including container management.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emberworks/arena/internal/config"
	"github.com/emberworks/arena/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The players, equipment, and combat_history tables exist in
// the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS players (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name         TEXT NOT NULL UNIQUE,
			level        INTEGER NOT NULL DEFAULT 1 CHECK (level BETWEEN 1 AND 20),
			gold         BIGINT NOT NULL DEFAULT 0 CHECK (gold >= 0),
			experience   BIGINT NOT NULL DEFAULT 0 CHECK (experience >= 0),
			base_attack  INTEGER NOT NULL CHECK (base_attack >= 1),
			base_defense INTEGER NOT NULL CHECK (base_defense >= 1),
			base_hp      INTEGER NOT NULL CHECK (base_hp >= 1),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS equipment (
			id             BIGSERIAL PRIMARY KEY,
			player_id      UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			slot           TEXT NOT NULL CHECK (slot IN ('weapon', 'armor', 'trinket')),
			name           TEXT NOT NULL,
			attack_bonus   INTEGER NOT NULL DEFAULT 0,
			defense_bonus  INTEGER NOT NULL DEFAULT 0,
			hp_bonus       INTEGER NOT NULL DEFAULT 0,
			accuracy       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (accuracy BETWEEN 0 AND 1),
			weapon_pattern TEXT NOT NULL DEFAULT 'balanced',
			equipped       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_equipment_player ON equipment(player_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_equipped_slot
			ON equipment(player_id, slot) WHERE equipped;
		CREATE TABLE IF NOT EXISTS combat_history (
			id                BIGSERIAL PRIMARY KEY,
			session_id        UUID NOT NULL UNIQUE,
			player_id         UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			location_id       TEXT NOT NULL,
			level             INTEGER NOT NULL,
			enemy_template_id TEXT NOT NULL,
			outcome           TEXT NOT NULL,
			turns             INTEGER NOT NULL,
			win_probability   DOUBLE PRECISION NOT NULL,
			log               JSONB NOT NULL DEFAULT '[]'::jsonb,
			completed_at      TIMESTAMPTZ NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_combat_history_player
			ON combat_history(player_id, completed_at DESC);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// NewPool starts a throwaway PostgreSQL container with the schema applied
// and returns its raw pool. Skipped in short mode because containers are
// slow to boot.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
