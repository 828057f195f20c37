// Package core holds the storage contract the bundle archive is written
// against. Archive objects are immutable documents keyed by their own
// content digest, which shapes the contract: writes are create-only and a
// key collision means the document is already archived.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names a concrete archive backend.
type Driver string

const (
	// DriverFilesystem archives under a local directory root.
	DriverFilesystem Driver = "fs" // default outside production
	// DriverS3 archives in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps archived objects in process memory.
	DriverMemory Driver = "memory" // tests only
)

// PutOptions carries the content type and flat user metadata recorded
// alongside an archived document.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string // small key-value set, e.g. the bundle format version
}

// SignedURLOptions configures pre-signing for direct archive reads.
type SignedURLOptions struct {
	Method  string        // only GET is issued by the archive layer
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// Info is the metadata an archive backend reports for a stored document.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the backend contract for archived documents. Because keys are
// content-derived, Put never overwrites: an existing key fails with
// ErrAlreadyExists, which callers treat as the document being archived
// already rather than as a fault.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned for capabilities a backend does not offer,
// such as pre-signing on the filesystem driver.
var ErrUnsupported = errors.New("blobstore: unsupported operation")

// ErrAlreadyExists is Put's signal that the key is already stored. For
// content-derived keys it carries no new information about the document.
var ErrAlreadyExists = errors.New("blobstore: key already exists")

// ErrNotFound is returned when the requested key is not stored.
var ErrNotFound = errors.New("blobstore: key not found")
