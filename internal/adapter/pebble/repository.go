// Package pebble stores snapshots in an embedded Pebble key-value store.
//
// Keys:
//
//	snapshot/<REGION>/<YYYY-MM-DD>  dated snapshot
//	legacy/<REGION>                 undated legacy record
//
// Values are JSON-encoded domain.Snapshot. Days sort lexically, so a range
// read is one bounded iteration walked backwards for newest-first order.
package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

const (
	snapshotPrefix = "snapshot/"
	legacyPrefix   = "legacy/"
	pingKey        = "meta/ping"
)

// Repository implements snapshot.Repository on Pebble. Pebble calls are not
// cancellable; ctx is checked before each operation.
type Repository struct {
	db *pebble.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, domain.StoreError("open", err)
	}
	return open(path, &pebble.Options{})
}

// OpenInMemory opens a store backed by an in-memory filesystem.
func OpenInMemory() (*Repository, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(path string, opts *pebble.Options) (*Repository, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, domain.StoreError("open", err)
	}
	return &Repository{db: db}, nil
}

func snapshotKey(region domain.Region, day domain.Day) []byte {
	return []byte(snapshotPrefix + string(region) + "/" + string(day))
}

func legacyKey(region domain.Region) []byte {
	return []byte(legacyPrefix + string(region))
}

func (r *Repository) Get(ctx context.Context, region domain.Region, day domain.Day) (domain.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, false, domain.StoreError("get", err)
	}
	return r.get("get", snapshotKey(region, day))
}

func (r *Repository) Put(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreError("put", err)
	}
	return r.put("put", snapshotKey(snap.Region, snap.Day), snap)
}

func (r *Repository) Range(ctx context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreError("range", err)
	}
	it, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: snapshotKey(region, start),
		// Upper bound is exclusive; the NUL suffix makes end inclusive.
		UpperBound: append(snapshotKey(region, end), 0),
	})
	if err != nil {
		return nil, domain.StoreError("range", err)
	}
	defer it.Close()

	var out []domain.Snapshot
	for ok := it.Last(); ok; ok = it.Prev() {
		var snap domain.Snapshot
		if err := json.Unmarshal(it.Value(), &snap); err != nil {
			return nil, domain.StoreError("range", fmt.Errorf("decode %s: %w", it.Key(), err))
		}
		out = append(out, snap)
	}
	if err := it.Error(); err != nil {
		return nil, domain.StoreError("range", err)
	}
	return out, nil
}

func (r *Repository) Legacy(ctx context.Context, region domain.Region) (domain.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, false, domain.StoreError("legacy", err)
	}
	return r.get("legacy", legacyKey(region))
}

func (r *Repository) PutLegacy(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreError("put legacy", err)
	}
	snap.Day = ""
	return r.put("put legacy", legacyKey(snap.Region), snap)
}

// Ping reads a fixed key; a missing key still proves the store answers.
func (r *Repository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreError("ping", err)
	}
	_, _, err := r.get("ping", []byte(pingKey))
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) get(op string, key []byte) (domain.Snapshot, bool, error) {
	v, closer, err := r.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, domain.StoreError(op, err)
	}
	defer closer.Close()

	var snap domain.Snapshot
	if err := json.Unmarshal(v, &snap); err != nil {
		return domain.Snapshot{}, false, domain.StoreError(op, fmt.Errorf("decode %s: %w", key, err))
	}
	return snap, true, nil
}

func (r *Repository) put(op string, key []byte, snap domain.Snapshot) error {
	v, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.db.Set(key, v, pebble.Sync); err != nil {
		return domain.StoreError(op, err)
	}
	return nil
}
