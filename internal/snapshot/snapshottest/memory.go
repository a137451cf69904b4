// Package snapshottest provides an in-memory snapshot.Repository for tests.
package snapshottest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

type key struct {
	region domain.Region
	day    domain.Day
}

// Repository is a goroutine-safe in-memory snapshot repository. Setting Err
// makes every operation fail with domain.ErrStoreUnavailable.
type Repository struct {
	mu     sync.Mutex
	snaps  map[key]domain.Snapshot
	Err    error
	Ranges []string // "REGION start..end" per Range call
	Puts   int
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{snaps: make(map[key]domain.Snapshot)}
}

func (r *Repository) fail(op string) error {
	if r.Err != nil {
		return domain.StoreError(op, r.Err)
	}
	return nil
}

func (r *Repository) Get(_ context.Context, region domain.Region, day domain.Day) (domain.Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("get"); err != nil {
		return domain.Snapshot{}, false, err
	}
	s, ok := r.snaps[key{region, day}]
	return clone(s), ok, nil
}

func (r *Repository) Put(_ context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("put"); err != nil {
		return err
	}
	r.snaps[key{snap.Region, snap.Day}] = clone(snap)
	r.Puts++
	return nil
}

func (r *Repository) Range(_ context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ranges = append(r.Ranges, string(region)+" "+string(start)+".."+string(end))
	if err := r.fail("range"); err != nil {
		return nil, err
	}
	var out []domain.Snapshot
	for k, s := range r.snaps {
		if k.region == region && !s.IsLegacy() && k.day >= start && k.day <= end {
			out = append(out, clone(s))
		}
	}
	slices.SortFunc(out, func(a, b domain.Snapshot) int {
		return strings.Compare(string(b.Day), string(a.Day))
	})
	return out, nil
}

func (r *Repository) Legacy(ctx context.Context, region domain.Region) (domain.Snapshot, bool, error) {
	return r.Get(ctx, region, "")
}

func (r *Repository) PutLegacy(ctx context.Context, snap domain.Snapshot) error {
	snap.Day = ""
	return r.Put(ctx, snap)
}

func (r *Repository) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail("ping")
}

func (r *Repository) Close() error { return nil }

func clone(s domain.Snapshot) domain.Snapshot {
	s.Topics = slices.Clone(s.Topics)
	return s
}
