package compliance

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// The application services are tested against real domain services over
// in-memory repositories, so recalculation and grading run the actual
// scheduling rules end to end.

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repositories
// ─────────────────────────────────────────────────────────────────────────────

type memShipRepo struct {
	mu    sync.Mutex
	ships map[common.ID]*ship.Ship
	fail  error
}

func newMemShipRepo() *memShipRepo {
	return &memShipRepo{ships: make(map[common.ID]*ship.Ship)}
}

func (r *memShipRepo) Create(_ context.Context, s *ship.Ship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ships[s.ID] = s
	return nil
}

func (r *memShipRepo) GetByID(_ context.Context, id common.ID) (*ship.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.ships[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeShipNotFound, "ship not found")
	}
	return s, nil
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

func (r *memShipRepo) List(_ context.Context, _ ship.ListFilter, _ common.Pagination) ([]*ship.Ship, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ship.Ship, 0, len(r.ships))
	for _, s := range r.ships {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *memShipRepo) ListOperational(_ context.Context) ([]*ship.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	var out []*ship.Ship
	for _, s := range r.ships {
		if s.Status == common.StatusActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
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
	c, ok := r.certs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeCertificateNotFound, "certificate not found")
	}
	return c, nil
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
	sort.Slice(out, func(i, j int) bool { return out[i].ValidDate.Before(*out[j].ValidDate) })
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
	sort.Slice(out, func(i, j int) bool { return out[i].NextSurveyDate.Before(*out[j].NextSurveyDate) })
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
	rec, ok := r.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeEquipmentRecordNotFound, "test record not found")
	}
	return rec, nil
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
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentName < out[j].EquipmentName })
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
	sort.Slice(out, func(i, j int) bool { return out[i].ValidDate.Before(*out[j].ValidDate) })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Port fakes
// ─────────────────────────────────────────────────────────────────────────────

// fakeCache is a pass-through cache: GetOrSet always runs the loader,
// SetNX tracks seen keys for dedup assertions.
type fakeCache struct {
	mu       sync.Mutex
	seen     map[string]bool
	deleted  []string
	setNXErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: make(map[string]bool)}
}

func (f *fakeCache) GetOrSet(ctx context.Context, _ string, dest interface{}, _ time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, keys...)
	return nil
}

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

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeArchive) Store(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeArchive) PresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.local/seacert-reports/" + key, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture builder
// ─────────────────────────────────────────────────────────────────────────────

type fixture struct {
	shipRepo  *memShipRepo
	certRepo  *memCertRepo
	equipRepo *memEquipRepo

	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
}

func newFixture() *fixture {
	logger := logging.NewNopLogger()
	f := &fixture{
		shipRepo:  newMemShipRepo(),
		certRepo:  newMemCertRepo(),
		equipRepo: newMemEquipRepo(),
	}
	f.ships = ship.NewService(f.shipRepo, logger)
	f.certs = certificate.NewService(f.certRepo, logger)
	f.equipment = equipment.NewService(f.equipRepo, f.ships, logger)
	return f
}

// addShip registers an active ship with survey anchors.
func (f *fixture) addShip(name, imo string, annivDay, annivMonth int) *ship.Ship {
	sh, err := ship.NewShip(name, imo, "Panama", "container")
	if err != nil {
		panic(err)
	}
	if annivMonth > 0 {
		if err := sh.SetAnchors(annivDay, annivMonth, nil); err != nil {
			panic(err)
		}
	}
	if err := f.shipRepo.Create(context.Background(), sh); err != nil {
		panic(err)
	}
	return sh
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dptr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func containsLine(data []byte, needle string) bool {
	return strings.Contains(string(data), needle)
}
