// Package postgres stores snapshots in PostgreSQL, one row per region and
// day with the topic list as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trend_snapshots (
	region     char(2)     NOT NULL,
	day        date        NOT NULL,
	topics     jsonb       NOT NULL,
	provenance text        NOT NULL,
	fetched_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	PRIMARY KEY (region, day)
);
CREATE TABLE IF NOT EXISTS trend_snapshots_legacy (
	region     char(2)     PRIMARY KEY,
	topics     jsonb       NOT NULL,
	provenance text        NOT NULL,
	fetched_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);`

const (
	selectSnapshot = `SELECT region, to_char(day, 'YYYY-MM-DD'), topics, provenance, fetched_at, updated_at
FROM trend_snapshots WHERE region = $1 AND day = $2::date`

	upsertSnapshot = `INSERT INTO trend_snapshots (region, day, topics, provenance, fetched_at, updated_at)
VALUES ($1, $2::date, $3, $4, $5, $6)
ON CONFLICT (region, day) DO UPDATE SET
	topics = EXCLUDED.topics,
	provenance = EXCLUDED.provenance,
	fetched_at = EXCLUDED.fetched_at,
	updated_at = EXCLUDED.updated_at`

	selectRange = `SELECT region, to_char(day, 'YYYY-MM-DD'), topics, provenance, fetched_at, updated_at
FROM trend_snapshots WHERE region = $1 AND day BETWEEN $2::date AND $3::date
ORDER BY day DESC`

	selectLegacy = `SELECT region, '', topics, provenance, fetched_at, updated_at
FROM trend_snapshots_legacy WHERE region = $1`

	upsertLegacy = `INSERT INTO trend_snapshots_legacy (region, topics, provenance, fetched_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (region) DO UPDATE SET
	topics = EXCLUDED.topics,
	provenance = EXCLUDED.provenance,
	fetched_at = EXCLUDED.fetched_at,
	updated_at = EXCLUDED.updated_at`
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Repository implements snapshot.Repository on PostgreSQL.
type Repository struct {
	db DB
}

// New wraps an open pool.
func New(db DB) *Repository {
	return &Repository{db: db}
}

// Connect opens a pool with a short connect timeout, so an unreachable
// server fails fast instead of hanging the read path, and ensures the
// schema exists.
func Connect(ctx context.Context, dsn string, connectTimeout time.Duration) (*Repository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.ConnConfig.ConnectTimeout = connectTimeout
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, domain.StoreError("connect", err)
	}

	r := New(pool)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the snapshot tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return domain.StoreError("ensure schema", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, region domain.Region, day domain.Day) (domain.Snapshot, bool, error) {
	return r.getOne(ctx, "get", selectSnapshot, string(region), string(day))
}

func (r *Repository) Put(ctx context.Context, snap domain.Snapshot) error {
	topics, err := json.Marshal(snap.Topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	if _, err := r.db.Exec(ctx, upsertSnapshot,
		string(snap.Region), string(snap.Day), topics, string(snap.Provenance), snap.FetchedAt, snap.UpdatedAt,
	); err != nil {
		return domain.StoreError("put", err)
	}
	return nil
}

func (r *Repository) Range(ctx context.Context, region domain.Region, start, end domain.Day) ([]domain.Snapshot, error) {
	rows, err := r.db.Query(ctx, selectRange, string(region), string(start), string(end))
	if err != nil {
		return nil, domain.StoreError("range", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, domain.StoreError("range", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("range", err)
	}
	return out, nil
}

func (r *Repository) Legacy(ctx context.Context, region domain.Region) (domain.Snapshot, bool, error) {
	return r.getOne(ctx, "legacy", selectLegacy, string(region))
}

func (r *Repository) PutLegacy(ctx context.Context, snap domain.Snapshot) error {
	topics, err := json.Marshal(snap.Topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	if _, err := r.db.Exec(ctx, upsertLegacy,
		string(snap.Region), topics, string(snap.Provenance), snap.FetchedAt, snap.UpdatedAt,
	); err != nil {
		return domain.StoreError("put legacy", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return domain.StoreError("ping", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

func (r *Repository) getOne(ctx context.Context, op, query string, args ...any) (domain.Snapshot, bool, error) {
	snap, err := scanSnapshot(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, domain.StoreError(op, err)
	}
	return snap, true, nil
}

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var (
		snap       domain.Snapshot
		region     string
		day        string
		topics     []byte
		provenance string
	)
	if err := row.Scan(&region, &day, &topics, &provenance, &snap.FetchedAt, &snap.UpdatedAt); err != nil {
		return domain.Snapshot{}, err
	}
	if err := json.Unmarshal(topics, &snap.Topics); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode topics: %w", err)
	}
	snap.Region = domain.Region(region)
	snap.Day = domain.Day(day)
	snap.Provenance = domain.Provenance(provenance)
	snap.FetchedAt = snap.FetchedAt.UTC()
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return snap, nil
}
