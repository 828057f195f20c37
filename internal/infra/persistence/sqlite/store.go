// Package sqlite provides a SQLite-backed graph store that snapshots the
// in-memory state to a single table of JSON bucket payloads.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"varcore/internal/infra/persistence/memory"
	"varcore/pkg/vmc"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ vmc.GraphStore = (*Store)(nil)

// Store persists the in-memory graph to SQLite as JSON bucket blobs. Every
// successful mutation snapshots the full state; content addressing keeps the
// snapshots small and upsert-safe.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) a snapshotting SQLite-backed graph store.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "varcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"locations", "alleles", "haplotypes", "genotypes", "identifiers"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot vmc.GraphSnapshot
	var loaded bool
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		loaded = true
		if err := decodeBucket(&snapshot, bucket, payload); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !loaded {
		return nil
	}
	return s.Store.ImportState(snapshot)
}

func decodeBucket(snapshot *vmc.GraphSnapshot, bucket string, payload []byte) error {
	var err error
	switch bucket {
	case "locations":
		err = json.Unmarshal(payload, &snapshot.Locations)
	case "alleles":
		err = json.Unmarshal(payload, &snapshot.Alleles)
	case "haplotypes":
		err = json.Unmarshal(payload, &snapshot.Haplotypes)
	case "genotypes":
		err = json.Unmarshal(payload, &snapshot.Genotypes)
	case "identifiers":
		err = json.Unmarshal(payload, &snapshot.Identifiers)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func encodeBucket(snapshot vmc.GraphSnapshot, bucket string) ([]byte, error) {
	switch bucket {
	case "locations":
		return json.Marshal(snapshot.Locations)
	case "alleles":
		return json.Marshal(snapshot.Alleles)
	case "haplotypes":
		return json.Marshal(snapshot.Haplotypes)
	case "genotypes":
		return json.Marshal(snapshot.Genotypes)
	case "identifiers":
		return json.Marshal(snapshot.Identifiers)
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.Store.ExportState(ctx)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		data, err := encodeBucket(snapshot, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
