// Package snapshot persists one cumulative topic list per region and day.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// Repository is the storage port for snapshots. Implementations wrap every
// backend failure with domain.ErrStoreUnavailable and must honour the
// deadline carried by ctx.
type Repository interface {
	// Get returns the snapshot stored for (region, day); ok is false when
	// none exists.
	Get(ctx context.Context, region domain.Region, day domain.Day) (snap domain.Snapshot, ok bool, err error)
	// Put replaces the snapshot stored under (snap.Region, snap.Day).
	Put(ctx context.Context, snap domain.Snapshot) error
	// Range returns the dated snapshots of region with start <= day <= end,
	// newest day first.
	Range(ctx context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error)
	// Legacy returns the undated record of region, if any.
	Legacy(ctx context.Context, region domain.Region) (snap domain.Snapshot, ok bool, err error)
	// PutLegacy stores snap as the undated record of its region.
	PutLegacy(ctx context.Context, snap domain.Snapshot) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Store implements merge-on-write daily snapshots on top of a Repository.
// The read-merge-write of Upsert is not atomic: callers must ensure a single
// writer per (region, day), which non-overlapping batch runs provide.
type Store struct {
	repo   Repository
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewStore creates a Store.
func NewStore(repo Repository, clock clockwork.Clock, logger *slog.Logger) *Store {
	return &Store{repo: repo, clock: clock, logger: logger}
}

// Today is the current UTC calendar day by the store's clock.
func (s *Store) Today() domain.Day { return domain.DayOf(s.clock.Now()) }

// Upsert merges topics into the snapshot of (region, day) and returns what
// was stored: topics first in their given order, then previously stored
// topics not re-fetched, deduplicated and capped at domain.MaxTopics.
// The region code is normalized before it is used as a key. Provenance,
// FetchedAt and UpdatedAt take the values of this call.
// Storage errors are returned as-is; Upsert does not retry.
func (s *Store) Upsert(ctx context.Context, region domain.Region, day domain.Day, topics []domain.Topic, prov domain.Provenance) (domain.Snapshot, error) {
	region, err := domain.ParseRegion(string(region))
	if err != nil {
		return domain.Snapshot{}, err
	}
	if _, err := domain.ParseDay(string(day)); err != nil {
		return domain.Snapshot{}, err
	}
	if !prov.Valid() {
		return domain.Snapshot{}, fmt.Errorf("unknown provenance %q", prov)
	}

	existing, found, err := s.repo.Get(ctx, region, day)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s/%s: %w", region, day, err)
	}

	var prior []domain.Topic
	if found {
		prior = existing.Topics
	}
	now := s.clock.Now().UTC()
	snap := domain.Snapshot{
		Region:     region,
		Day:        day,
		Topics:     domain.MergeTopics(topics, prior),
		Provenance: prov,
		FetchedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("store snapshot %s/%s: %w", region, day, err)
	}

	s.logger.Debug("snapshot upserted",
		"region", region,
		"day", day,
		"provenance", prov,
		"topics", len(snap.Topics),
		"merged_existing", found,
	)
	return snap, nil
}

// ReadRange returns the dated snapshots of region within [start, end],
// newest day first.
func (s *Store) ReadRange(ctx context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error) {
	snaps, err := s.repo.Range(ctx, region, start, end)
	if err != nil {
		return nil, fmt.Errorf("read snapshots %s [%s, %s]: %w", region, start, end, err)
	}
	return snaps, nil
}

// ReadLegacy returns the undated pre-migration record of region, if any.
func (s *Store) ReadLegacy(ctx context.Context, region domain.Region) (*domain.Snapshot, error) {
	snap, ok, err := s.repo.Legacy(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("read legacy snapshot %s: %w", region, err)
	}
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// ImportLegacy stores snap as the undated record of its region, replacing
// any previous one. Topics are deduplicated and capped; a zero FetchedAt
// defaults to now.
func (s *Store) ImportLegacy(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	region, err := domain.ParseRegion(string(snap.Region))
	if err != nil {
		return domain.Snapshot{}, err
	}
	if !snap.Provenance.Valid() {
		return domain.Snapshot{}, fmt.Errorf("unknown provenance %q", snap.Provenance)
	}

	now := s.clock.Now().UTC()
	snap.Region = region
	snap.Day = ""
	snap.Topics = domain.MergeTopics(snap.Topics, nil)
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = now
	}
	snap.UpdatedAt = now

	if err := s.repo.PutLegacy(ctx, snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("store legacy snapshot %s: %w", region, err)
	}
	return snap, nil
}

// Ping reports whether the backing repository is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
