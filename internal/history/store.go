package history

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/kv"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// DefaultKey is the kv key holding the history blob.
const DefaultKey = "history"

// DefaultChunkSize is the number of records removed per chunk during cleanup.
const DefaultChunkSize = 10

// Store owns the durable detection history: a single JSON array under one kv key.
// Every operation is a read-modify-write of the whole collection, serialized by mu.
type Store struct {
	mu sync.Mutex

	kv         kv.Store
	key        string
	logger     *zap.Logger
	now        func() time.Time
	newID      func(time.Time) (string, error)
	chunkSize  int
	keepPinned bool

	// opaque holds entries from the last load that did not decode; save
	// writes them back so an unrelated write never drops them.
	opaque []json.RawMessage
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKey overrides the kv key (default "history").
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(gen func(time.Time) (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

// WithChunkSize sets how many records CleanupExpired removes per chunk.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithKeepPinned exempts pinned records from CleanupExpired.
func WithKeepPinned(keep bool) Option {
	return func(s *Store) { s.keepPinned = keep }
}

// New creates a history store over the given kv store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:        store,
		key:       DefaultKey,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     newULIDGenerator(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newULIDGenerator returns a generator sharing one monotonic entropy source.
// Callers must serialize access (Store calls it under mu).
func newULIDGenerator() func(time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func(t time.Time) (string, error) {
		id, err := ulid.New(ulid.Timestamp(t), entropy)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
}

// Draft is the input to Create. ID is optional; Kind and the matching payload are required.
type Draft struct {
	ID       string
	ImageURI string
	Kind     record.Kind
	Label    string
	Growth   *record.GrowthInfo
	Disease  *record.DiseaseInfo
}

func (d *Draft) validate() error {
	switch d.Kind {
	case record.KindGrowth:
		if d.Growth == nil {
			return errors.NewInvalidRequest("growth detection requires a growth payload")
		}
		if d.Disease != nil {
			return errors.NewInvalidRequest("growth detection must not carry a disease payload")
		}
	case record.KindDisease:
		if d.Disease == nil {
			return errors.NewInvalidRequest("disease detection requires a disease payload")
		}
		if d.Growth != nil {
			return errors.NewInvalidRequest("disease detection must not carry a growth payload")
		}
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("kind must be one of: %s, %s", record.KindGrowth, record.KindDisease))
	}
	return nil
}

// load reads and decodes the collection. A missing key or an undecodable blob
// yields an empty collection; only kv read failures are returned as errors.
// Entries that fail to decode are hidden from callers but kept for save.
// Callers hold mu.
func (s *Store) load(ctx context.Context) ([]record.Record, error) {
	s.opaque = nil
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []record.Record{}, nil
	}

	records, opaque, skipped, err := record.DecodeList([]byte(raw))
	if err != nil {
		s.logger.Error("history blob is corrupt, treating as empty", zap.Error(err))
		return []record.Record{}, nil
	}
	for _, e := range skipped {
		s.logger.Warn("skipping malformed history record", zap.Error(e))
	}
	s.opaque = opaque
	return records, nil
}

// save persists the collection in canonical order, followed by the opaque
// entries of the preceding load. Callers hold mu.
func (s *Store) save(ctx context.Context, records []record.Record) error {
	record.Sort(records)
	data, err := record.EncodeList(records, s.opaque...)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("failed to write history", zap.Error(err))
		return errors.NewStorageWrite(err)
	}
	return nil
}

func (s *Store) loadForWrite(ctx context.Context) ([]record.Record, error) {
	records, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to read history", zap.Error(err))
		return nil, errors.NewInternal(err)
	}
	return records, nil
}

func indexOf(records []record.Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// Create stores a new detection record at the front of the history and returns it.
// DetectedAt is stamped from the store clock; the label defaults to "No Label".
// A growth payload without a harvest date gets one derived from its estimate text.
func (s *Store) Create(ctx context.Context, d Draft) (*record.Record, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := strings.TrimSpace(d.ID)
	if id == "" {
		if id, err = s.newID(now); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if indexOf(records, id) >= 0 {
		return nil, errors.NewConflict(fmt.Sprintf("record id already exists: %s", id))
	}

	draft := record.Record{Kind: d.Kind, Growth: d.Growth, Disease: d.Disease}
	rec := draft.Clone()
	rec.ID = id
	rec.ImageURI = d.ImageURI
	rec.DetectedAt = now
	rec.Label = record.NormalizeLabel(d.Label)
	if g := rec.Growth; g != nil && g.HarvestDate == nil {
		if days, ok := record.ParseEstimateDays(g.HarvestEstimate); ok {
			harvest := record.HarvestDate(now, days)
			g.HarvestDate = &harvest
			g.DaysUntilHarvest = days
		}
	}

	records = append([]record.Record{rec}, records...)
	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	s.logger.Debug("record created", zap.String("id", id), zap.String("kind", string(rec.Kind)))
	out := rec.Clone()
	return &out, nil
}

// List returns every record in canonical order. It never writes.
// Unreadable storage is logged and reported as an empty history.
func (s *Store) List(ctx context.Context) []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("failed to read history, returning empty list", zap.Error(err))
		return []record.Record{}
	}
	record.Sort(records)
	return records
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, errors.NewNotFound(id)
	}
	out := records[i].Clone()
	return &out, nil
}

// UpdateLabel sets the label of one record; blank labels become "No Label".
// Returns the updated record, or nil when id is absent (a silent no-op).
func (s *Store) UpdateLabel(ctx context.Context, id, label string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, nil
	}
	records[i].Label = record.NormalizeLabel(label)
	out := records[i].Clone()

	if err := s.save(ctx, records); err != nil {
		return nil, err
	}
	return &out, nil
}

// TogglePin flips the pin state of one record. Pinning stamps PinnedAt with
// the store clock; unpinning clears it, so a later re-pin ranks by the new time.
// Returns the updated record, or nil when id is absent (a silent no-op).
func (s *Store) TogglePin(ctx context.Context, id string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, nil
	}

	r := &records[i]
	r.IsPinned = !r.IsPinned
	if r.IsPinned {
		now := s.now()
		r.PinnedAt = &now
	} else {
		r.PinnedAt = nil
	}
	out := r.Clone()

	if err := s.save(ctx, records); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one record. Deleting an absent id is not an error.
// Reports whether a record was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.DeleteMany(ctx, []string{id})
	return n > 0, err
}

// DeleteMany removes every record whose id is in ids; absent ids are ignored.
// Returns how many records were removed. Nothing is written when none match.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteManyLocked(ctx, ids)
}

func (s *Store) deleteManyLocked(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	records, err := s.loadForWrite(ctx)
	if err != nil {
		return 0, err
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := records[:0]
	for _, r := range records {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
