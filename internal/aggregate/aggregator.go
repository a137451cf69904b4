// Package aggregate builds windowed views over daily snapshots and serves
// them to the read path.
package aggregate

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// SnapshotSource is the read side of the snapshot store.
type SnapshotSource interface {
	ReadRange(ctx context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error)
	ReadLegacy(ctx context.Context, region domain.Region) (*domain.Snapshot, error)
}

// Aggregator merges the snapshots of a window into one view. It never
// swallows storage errors; see Reader for the fail-open boundary.
type Aggregator struct {
	snaps SnapshotSource
	clock clockwork.Clock
}

// NewAggregator creates an Aggregator.
func NewAggregator(snaps SnapshotSource, clock clockwork.Clock) *Aggregator {
	return &Aggregator{snaps: snaps, clock: clock}
}

// Get returns the view of region over window. A nil view with a nil error
// means no snapshot of any kind exists, which is distinct from a view with
// an empty topic list.
func (a *Aggregator) Get(ctx context.Context, region domain.Region, window domain.Window) (*domain.WindowView, error) {
	start, end := window.Range(domain.DayOf(a.clock.Now()))

	snaps, err := a.snaps.ReadRange(ctx, region, start, end)
	if err != nil {
		return nil, err
	}

	legacy := false
	if len(snaps) == 0 {
		old, err := a.snaps.ReadLegacy(ctx, region)
		if err != nil {
			return nil, err
		}
		if old == nil {
			return nil, nil
		}
		snaps = []domain.Snapshot{*old}
		legacy = true
	}

	newest := snaps[0]
	return &domain.WindowView{
		Region:     region,
		Window:     window,
		Topics:     domain.AggregateWindow(snaps),
		Provenance: newest.Provenance,
		FetchedAt:  newest.FetchedAt,
		UpdatedAt:  newest.UpdatedAt,
		Legacy:     legacy,
	}, nil
}

// CacheKey identifies a view for today's calendar day, so cached views of
// one day are never served on the next.
func CacheKey(region domain.Region, window domain.Window, today domain.Day) string {
	return fmt.Sprintf("view:%s:%s:%s", region, window, today)
}
