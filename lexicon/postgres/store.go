// Package postgres is a PostgreSQL-backed [lexicon.Gateway].
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "vocabulary"

// schemaTemplate is the DDL for the vocabulary table; %[1]s is the quoted
// table name and %[2]s a quoted index name.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    surface   TEXT NOT NULL,
    readings  TEXT[] NOT NULL,
    gloss     TEXT NOT NULL DEFAULT '',
    tier      INTEGER NOT NULL CHECK (tier > 0),
    frequency DOUBLE PRECISION,
    PRIMARY KEY (surface, readings)
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s(tier);
`

// DB is the subset of pgx used by [Store]. Both *pgxpool.Pool and *pgx.Conn
// satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Compile-time interface checks.
var (
	_ lexicon.Gateway       = (*Store)(nil)
	_ lexicon.SurfaceLookup = (*Store)(nil)
)

// Store reads vocabulary from a PostgreSQL table. Rows are passed through
// [lexicon.Prepare] so the engine sees the same shape as the in-memory store.
type Store struct {
	db    DB
	pool  *pgxpool.Pool
	table string
	index string
}

// New connects to dsn, verifies the connection and runs [Store.Migrate].
func New(ctx context.Context, dsn, table string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("lexicon postgres: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("lexicon postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("lexicon postgres: ping: %w", err)
	}

	s := NewWithDB(pool, table)
	s.pool = pool
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection or pool. The caller owns db and
// must run [Store.Migrate] if the table may not exist yet.
func NewWithDB(db DB, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
		index: pgx.Identifier{"idx_" + table + "_tier"}.Sanitize(),
	}
}

// Migrate creates the table and its tier index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(schemaTemplate, s.table, s.index)); err != nil {
		return fmt.Errorf("lexicon postgres: migrate: %w", err)
	}
	return nil
}

// Lookup implements [lexicon.Gateway].
func (s *Store) Lookup(ctx context.Context, tier int) ([]types.VocabEntry, error) {
	q := "SELECT surface, readings, gloss, tier FROM " + s.table + " WHERE tier = $1 ORDER BY surface"
	rows, err := s.db.Query(ctx, q, tier)
	if err != nil {
		return nil, fmt.Errorf("lexicon postgres: lookup tier %d: %w", tier, err)
	}
	return collectEntries(rows)
}

// LookupSurface implements [lexicon.SurfaceLookup].
func (s *Store) LookupSurface(ctx context.Context, surface string) ([]types.VocabEntry, error) {
	q := "SELECT surface, readings, gloss, tier FROM " + s.table + " WHERE surface = $1 ORDER BY readings"
	rows, err := s.db.Query(ctx, q, surface)
	if err != nil {
		return nil, fmt.Errorf("lexicon postgres: lookup %q: %w", surface, err)
	}
	return collectEntries(rows)
}

// Upsert writes entries in a single batch. Entries that fail
// [lexicon.Prepare] are skipped; the number written is returned. freqs may
// be nil.
func (s *Store) Upsert(ctx context.Context, entries []types.VocabEntry, freqs map[string]float64) (int, error) {
	q := "INSERT INTO " + s.table + ` (surface, readings, gloss, tier, frequency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (surface, readings)
		DO UPDATE SET gloss = EXCLUDED.gloss, tier = EXCLUDED.tier, frequency = EXCLUDED.frequency`

	batch := &pgx.Batch{}
	for _, raw := range entries {
		e, ok := lexicon.Prepare(raw)
		if !ok {
			continue
		}
		var freq *float64
		if f, ok := freqs[e.Surface]; ok {
			freq = &f
		}
		batch.Queue(q, e.Surface, e.Readings, e.Gloss, e.Tier, freq)
	}
	n := batch.Len()
	if n == 0 {
		return 0, nil
	}

	br := s.db.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return i, fmt.Errorf("lexicon postgres: upsert row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return n, fmt.Errorf("lexicon postgres: upsert: %w", err)
	}
	return n, nil
}

// Close releases the pool opened by [New]. It is a no-op for stores built
// with [NewWithDB].
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Table returns the quoted table name.
func (s *Store) Table() string { return s.table }

func collectEntries(rows pgx.Rows) ([]types.VocabEntry, error) {
	raw, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.VocabEntry, error) {
		var e types.VocabEntry
		if err := row.Scan(&e.Surface, &e.Readings, &e.Gloss, &e.Tier); err != nil {
			return types.VocabEntry{}, err
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("lexicon postgres: scan rows: %w", err)
	}
	out := make([]types.VocabEntry, 0, len(raw))
	for _, e := range raw {
		if p, ok := lexicon.Prepare(e); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

