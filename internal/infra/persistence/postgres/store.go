// Package postgres provides a Postgres-backed graph store that mirrors the
// in-memory semantics while snapshotting bucket payloads to a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"varcore/internal/infra/persistence/memory"
	"varcore/pkg/vmc"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ vmc.GraphStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenGraphStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/varcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists graph state to Postgres while reusing the in-memory
// implementation for reads and writes.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

var postgresBuckets = []string{"locations", "alleles", "haplotypes", "genotypes", "identifiers"}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	if err := mem.ImportState(snapshot); err != nil {
		return nil, fmt.Errorf("hydrate snapshot: %w", err)
	}
	return &Store{Store: mem, db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (vmc.GraphSnapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return vmc.GraphSnapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot vmc.GraphSnapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return vmc.GraphSnapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var decodeErr error
		switch bucket {
		case "locations":
			decodeErr = json.Unmarshal(payload, &snapshot.Locations)
		case "alleles":
			decodeErr = json.Unmarshal(payload, &snapshot.Alleles)
		case "haplotypes":
			decodeErr = json.Unmarshal(payload, &snapshot.Haplotypes)
		case "genotypes":
			decodeErr = json.Unmarshal(payload, &snapshot.Genotypes)
		case "identifiers":
			decodeErr = json.Unmarshal(payload, &snapshot.Identifiers)
		}
		if decodeErr != nil {
			return vmc.GraphSnapshot{}, fmt.Errorf("decode %s: %w", bucket, decodeErr)
		}
	}
	if err := rows.Err(); err != nil {
		return vmc.GraphSnapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.Store.ExportState(ctx)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		var data []byte
		switch bucket {
		case "locations":
			data, err = json.Marshal(snapshot.Locations)
		case "alleles":
			data, err = json.Marshal(snapshot.Alleles)
		case "haplotypes":
			data, err = json.Marshal(snapshot.Haplotypes)
		case "genotypes":
			data, err = json.Marshal(snapshot.Genotypes)
		case "identifiers":
			data, err = json.Marshal(snapshot.Identifiers)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// PutLocation upserts a location and snapshots state.
func (s *Store) PutLocation(ctx context.Context, loc vmc.Location) error {
	if err := s.Store.PutLocation(ctx, loc); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutAllele upserts an allele and snapshots state.
func (s *Store) PutAllele(ctx context.Context, allele vmc.Allele) error {
	if err := s.Store.PutAllele(ctx, allele); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutHaplotype upserts a haplotype and snapshots state.
func (s *Store) PutHaplotype(ctx context.Context, haplotype vmc.Haplotype) error {
	if err := s.Store.PutHaplotype(ctx, haplotype); err != nil {
		return err
	}
	return s.persist(ctx)
}

// PutGenotype upserts a genotype and snapshots state.
func (s *Store) PutGenotype(ctx context.Context, genotype vmc.Genotype) error {
	if err := s.Store.PutGenotype(ctx, genotype); err != nil {
		return err
	}
	return s.persist(ctx)
}

// RegisterIdentifier records an external synonym and snapshots state.
func (s *Store) RegisterIdentifier(ctx context.Context, computedID string, external vmc.Identifier) error {
	if err := s.Store.RegisterIdentifier(ctx, computedID, external); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
