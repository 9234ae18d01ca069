//go:build integration

// End-to-end API tests: the Go SDK talking to the full HTTP stack over a
// real PostgreSQL and Redis. Kafka and MinIO are replaced by in-process
// fakes; the messaging and storage packages have their own integration
// suites. Requires Docker and the "integration" build tag.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/SeaCert-Compliance/internal/application/compliance"
	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/redis"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/SeaCert-Compliance/internal/interfaces/http"
	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/http/handlers"
	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

const migrationsPath = "../../migrations"

// capturingPublisher records published events instead of talking to a
// broker. It satisfies both the handler and application publisher ports.
type capturingPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Topic     string
	EventType string
	Payload   json.RawMessage
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic, eventType, _ string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Topic: topic, EventType: eventType, Payload: data})
	return nil
}

func (p *capturingPublisher) byTopic(topic string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// memArchive keeps archived reports in memory.
type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemArchive() *memArchive {
	return &memArchive{objects: make(map[string][]byte)}
}

func (a *memArchive) Store(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *memArchive) PresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/seacert-reports/" + key, nil
}

// testEnv is the assembled system under test.
type testEnv struct {
	API       *client.Client
	Publisher *capturingPublisher
	Archive   *memArchive
}

// startEnv brings up PostgreSQL and Redis containers, wires the full
// service stack behind an httptest server, and returns an SDK client
// pointed at it.
func startEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNopLogger()

	// PostgreSQL
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "seacert_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgHost, err := pgC.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := config.DatabaseConfig{
		Host:     pgHost,
		Port:     pgPort.Int(),
		User:     "test",
		Password: "test",
		DBName:   "seacert_test",
		SSLMode:  "disable",
	}
	require.NoError(t, postgres.RunMigrations(postgres.ConnString(dbCfg), migrationsPath))

	conn, err := postgres.NewConnection(ctx, dbCfg, logger)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	// Redis
	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	redisHost, err := redisC.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisClient, err := redis.NewClient(ctx, config.RedisConfig{
		Mode: "standalone",
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	cache := redis.NewCache(redisClient, logger, redis.WithPrefix("seacert-test"))

	// Services
	ships := ship.NewService(repositories.NewShipRepository(conn.Pool(), logger), logger)
	certs := certificate.NewService(repositories.NewCertificateRepository(conn.Pool(), logger), logger)
	equip := equipment.NewService(repositories.NewEquipmentRepository(conn.Pool(), logger), ships, logger)

	publisher := &capturingPublisher{}
	archive := newMemArchive()
	schedCfg := config.SchedulingConfig{
		WarningDays:     60,
		RecalcWorkers:   2,
		RecalcBatchSize: 50,
		AlertDedupTTL:   time.Minute,
	}

	complianceSvc := compliance.NewService(ships, certs, equip, cache, schedCfg, logger)
	calendarSvc := compliance.NewCalendarService(ships, certs, equip, schedCfg.WarningDays, logger)
	alertSvc := compliance.NewAlertService(ships, certs, equip, publisher, cache, archive, schedCfg, logger)

	engine := httpapi.NewRouter(httpapi.RouterConfig{
		Ships:        handlers.NewShipHandler(ships, certs, equip, schedCfg.WarningDays, logger),
		Certificates: handlers.NewCertificateHandler(certs, publisher, schedCfg.WarningDays, logger),
		Equipment:    handlers.NewEquipmentHandler(equip, schedCfg.WarningDays, logger),
		Compliance:   handlers.NewComplianceHandler(complianceSvc, calendarSvc, alertSvc, publisher, logger),
		Health:       handlers.NewHealthHandler("test", handlers.Probe{Name: "postgres", Check: conn.HealthCheck}),
		Mode:         gin.TestMode,
	})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	api, err := client.NewClient(server.URL)
	require.NoError(t, err)

	return &testEnv{API: api, Publisher: publisher, Archive: archive}
}

func dateStr(y int, m time.Month, d int) string {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}
