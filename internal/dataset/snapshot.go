package dataset

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// ErrNotLoaded is returned when the dataset has not been published yet.
var ErrNotLoaded = errors.New("dataset not loaded")

// Snapshot is an immutable, fully normalized record set. It is shared by all
// queries and must never be modified after Build.
type Snapshot struct {
	records      []domain.Record
	regions      []string
	vehicleTypes []string
	dropped      int
	loadedAt     time.Time
}

// Records returns the normalized records in load order. Callers must not
// modify the returned slice.
func (s *Snapshot) Records() []domain.Record { return s.records }

// Len returns the number of retained records.
func (s *Snapshot) Len() int { return len(s.records) }

// Dropped returns how many source rows were rejected for missing coordinates.
func (s *Snapshot) Dropped() int { return s.dropped }

// Regions returns the distinct non-empty region labels, sorted.
func (s *Snapshot) Regions() []string { return slices.Clone(s.regions) }

// VehicleTypes returns the distinct raw vehicle descriptors across all slots, sorted.
func (s *Snapshot) VehicleTypes() []string { return slices.Clone(s.vehicleTypes) }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Builder accumulates normalized records until Build freezes them.
type Builder struct {
	records      []domain.Record
	regions      map[string]struct{}
	vehicleTypes map[string]struct{}
	dropped      int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		regions:      make(map[string]struct{}),
		vehicleTypes: make(map[string]struct{}),
	}
}

// Add appends records and indexes their regions and vehicle descriptors.
func (b *Builder) Add(recs ...domain.Record) {
	for i := range recs {
		if r := recs[i].Region; r != "" {
			b.regions[r] = struct{}{}
		}
		for _, v := range recs[i].Vehicles {
			if v != "" {
				b.vehicleTypes[v] = struct{}{}
			}
		}
	}
	b.records = append(b.records, recs...)
}

// AddDropped counts rows rejected during normalization.
func (b *Builder) AddDropped(n int) { b.dropped += n }

// Len returns the number of records added so far.
func (b *Builder) Len() int { return len(b.records) }

// Build freezes the accumulated records into a Snapshot. The Builder must not
// be used afterwards.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		records:      slices.Clip(b.records),
		regions:      sortedKeys(b.regions),
		vehicleTypes: sortedKeys(b.vehicleTypes),
		dropped:      b.dropped,
		loadedAt:     domain.Now(),
	}
	b.records = nil
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Store holds the published snapshot. Publication happens once; readers
// never block.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty Store.
func NewStore() *Store { return &Store{} }

// Publish makes s visible to readers.
func (st *Store) Publish(s *Snapshot) { st.current.Store(s) }

// Snapshot returns the published snapshot or ErrNotLoaded.
func (st *Store) Snapshot() (*Snapshot, error) {
	s := st.current.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s, nil
}
