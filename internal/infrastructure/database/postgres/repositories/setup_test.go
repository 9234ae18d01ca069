//go:build integration

// Integration tests for the PostgreSQL repositories. They require Docker
// and run only under the "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const migrationsPath = "../../../../../migrations"

type testRepos struct {
	pool      *pgxpool.Pool
	ships     *repositories.ShipRepository
	certs     *repositories.CertificateRepository
	equipment *repositories.EquipmentRepository
}

// startRepos launches a PostgreSQL 16 container, applies the real
// migrations and returns connected repositories.
func startRepos(t *testing.T) testRepos {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "seacert_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/seacert_test?sslmode=disable", host, port.Port())
	require.NoError(t, postgres.RunMigrations(dsn, migrationsPath))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := logging.NewNopLogger()
	return testRepos{
		pool:      pool,
		ships:     repositories.NewShipRepository(pool, logger),
		certs:     repositories.NewCertificateRepository(pool, logger),
		equipment: repositories.NewEquipmentRepository(pool, logger),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture helpers
// ─────────────────────────────────────────────────────────────────────────────

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dptr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func mustShip(t *testing.T, name, imo string) *ship.Ship {
	t.Helper()
	s, err := ship.NewShip(name, imo, "PA", "container")
	require.NoError(t, err)
	return s
}

func mustCertificate(t *testing.T, shipID common.ID, name, category string, issue time.Time, valid *time.Time) *certificate.Certificate {
	t.Helper()
	c, err := certificate.NewCertificate(shipID, name, category, issue, valid, "")
	require.NoError(t, err)
	return c
}

func mustRecord(t *testing.T, shipID common.ID, equipmentName string, issued time.Time) *equipment.TestRecord {
	t.Helper()
	rec, err := equipment.NewTestRecord(shipID, equipmentName, issued, scheduling.ShipAnchors{})
	require.NoError(t, err)
	return rec
}
