package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repositories
// ─────────────────────────────────────────────────────────────────────────────

type memShipRepo struct {
	mu    sync.Mutex
	ships map[common.ID]*ship.Ship
}

func newMemShipRepo() *memShipRepo { return &memShipRepo{ships: make(map[common.ID]*ship.Ship)} }

func (r *memShipRepo) Create(_ context.Context, s *ship.Ship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ships[s.ID] = s
	return nil
}

func (r *memShipRepo) GetByID(_ context.Context, id common.ID) (*ship.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.ships[id]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeShipNotFound, "ship not found")
}

func (r *memShipRepo) GetByIMO(_ context.Context, imo string) (*ship.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.ships {
		if s.IMONumber == imo {
			return s, nil
		}
	}
	return nil, errors.New(errors.ErrCodeShipNotFound, "ship not found")
}

func (r *memShipRepo) Update(_ context.Context, s *ship.Ship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ships[s.ID] = s
	return nil
}

func (r *memShipRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ships, id)
	return nil
}

func (r *memShipRepo) List(_ context.Context, filter ship.ListFilter, _ common.Pagination) ([]*ship.Ship, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ship.Ship
	for _, s := range r.ships {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *memShipRepo) ListOperational(_ context.Context) ([]*ship.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ship.Ship
	for _, s := range r.ships {
		if s.Status == common.StatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memShipRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.ships)), nil
}

type memCertRepo struct {
	mu    sync.Mutex
	certs map[common.ID]*certificate.Certificate
}

func newMemCertRepo() *memCertRepo {
	return &memCertRepo{certs: make(map[common.ID]*certificate.Certificate)}
}

func (r *memCertRepo) Create(_ context.Context, c *certificate.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[c.ID] = c
	return nil
}

func (r *memCertRepo) GetByID(_ context.Context, id common.ID) (*certificate.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.certs[id]; ok {
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeCertificateNotFound, "certificate not found")
}

func (r *memCertRepo) Update(_ context.Context, c *certificate.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[c.ID] = c
	return nil
}

func (r *memCertRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.certs, id)
	return nil
}

func (r *memCertRepo) ListByShip(_ context.Context, shipID common.ID) ([]*certificate.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*certificate.Certificate
	for _, c := range r.certs {
		if c.ShipID == shipID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCertRepo) List(_ context.Context, _ certificate.ListFilter, _ common.Pagination) ([]*certificate.Certificate, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*certificate.Certificate, 0, len(r.certs))
	for _, c := range r.certs {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memCertRepo) FindExpiring(_ context.Context, cutoff time.Time) ([]*certificate.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*certificate.Certificate
	for _, c := range r.certs {
		if c.ValidDate != nil && !c.ValidDate.After(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCertRepo) FindSurveysBetween(_ context.Context, from, to time.Time) ([]*certificate.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*certificate.Certificate
	for _, c := range r.certs {
		d := c.NextSurveyDate
		if d != nil && !d.Before(from) && !d.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memEquipRepo struct {
	mu      sync.Mutex
	records map[common.ID]*equipment.TestRecord
}

func newMemEquipRepo() *memEquipRepo {
	return &memEquipRepo{records: make(map[common.ID]*equipment.TestRecord)}
}

func (r *memEquipRepo) Create(_ context.Context, rec *equipment.TestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *memEquipRepo) GetByID(_ context.Context, id common.ID) (*equipment.TestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		return rec, nil
	}
	return nil, errors.New(errors.ErrCodeEquipmentRecordNotFound, "test record not found")
}

func (r *memEquipRepo) Update(_ context.Context, rec *equipment.TestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *memEquipRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *memEquipRepo) ListByShip(_ context.Context, shipID common.ID) ([]*equipment.TestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*equipment.TestRecord
	for _, rec := range r.records {
		if rec.ShipID == shipID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memEquipRepo) List(_ context.Context, _ equipment.ListFilter, _ common.Pagination) ([]*equipment.TestRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*equipment.TestRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (r *memEquipRepo) FindExpiring(_ context.Context, cutoff time.Time) ([]*equipment.TestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*equipment.TestRecord
	for _, rec := range r.records {
		if rec.ValidDate != nil && !rec.ValidDate.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

type publishedEvent struct {
	Topic     string
	EventType string
	Payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, eventType, _ string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{Topic: topic, EventType: eventType, Payload: payload})
	return nil
}

type fixture struct {
	shipRepo  *memShipRepo
	certRepo  *memCertRepo
	equipRepo *memEquipRepo

	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
	publisher *fakePublisher
}

func newFixture() *fixture {
	logger := logging.NewNopLogger()
	f := &fixture{
		shipRepo:  newMemShipRepo(),
		certRepo:  newMemCertRepo(),
		equipRepo: newMemEquipRepo(),
		publisher: &fakePublisher{},
	}
	f.ships = ship.NewService(f.shipRepo, logger)
	f.certs = certificate.NewService(f.certRepo, logger)
	f.equipment = equipment.NewService(f.equipRepo, f.ships, logger)
	return f
}

func (f *fixture) addShip(t *testing.T, name, imo string) *ship.Ship {
	t.Helper()
	sh, err := f.ships.RegisterShip(context.Background(), name, imo, "Panama", "container")
	require.NoError(t, err)
	_, err = f.ships.SetAnchors(context.Background(), sh.ID, 15, 6, nil)
	require.NoError(t, err)
	return sh
}

// newAPIRouter mounts the fixture's handlers the way the router does.
func (f *fixture) newAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := logging.NewNopLogger()

	r := gin.New()
	api := r.Group("/api/v1")
	NewShipHandler(f.ships, f.certs, f.equipment, 60, logger).RegisterRoutes(api)
	NewCertificateHandler(f.certs, f.publisher, 60, logger).RegisterRoutes(api)
	NewEquipmentHandler(f.equipment, 60, logger).RegisterRoutes(api)
	return r
}

// envelope mirrors common.APIResponse for decoding raw responses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Pagination *common.Pagination `json:"pagination"`
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}
