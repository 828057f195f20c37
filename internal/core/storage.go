package core

import (
	"fmt"
	"os"

	"varcore/internal/infra/persistence/memory"
	"varcore/internal/infra/persistence/postgres"
	"varcore/internal/infra/persistence/sqlite"
	"varcore/pkg/vmc"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenGraphStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	VARCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	VARCORE_SQLITE_PATH: path to sqlite file (default ./varcore.db)
//	VARCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenGraphStore() (vmc.GraphStore, error) {
	driver := os.Getenv("VARCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("VARCORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("VARCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
