package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"varcore/pkg/vmc"
)

// ArchivePrefix is the key prefix under which bundle documents are stored.
const ArchivePrefix = "bundles/"

// ArchiveKey derives the content-addressed archive key for a serialized
// bundle document.
func ArchiveKey(document []byte) string {
	return ArchivePrefix + vmc.Digest(document) + ".json"
}

// ArchiveBundle serializes the bundle and writes it create-only under a key
// derived from the document digest. Archiving the same bundle twice is a
// no-op that returns the existing object's info.
func ArchiveBundle(ctx context.Context, store Store, bundle vmc.Bundle) (string, Info, error) {
	document, err := json.Marshal(bundle)
	if err != nil {
		return "", Info{}, fmt.Errorf("marshal bundle: %w", err)
	}
	key := ArchiveKey(document)
	opts := PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"vmc_version": bundle.Meta.Version},
	}
	info, err := store.Put(ctx, key, bytes.NewReader(document), opts)
	if errors.Is(err, ErrAlreadyExists) {
		existing, headErr := store.Head(ctx, key)
		if headErr != nil {
			return "", Info{}, headErr
		}
		return key, existing, nil
	}
	if err != nil {
		return "", Info{}, err
	}
	return key, info, nil
}

// FetchBundle reads an archived bundle document, verifies its digest against
// the key, and parses it back into a bundle.
func FetchBundle(ctx context.Context, store Store, key string) (vmc.Bundle, error) {
	_, body, err := store.Get(ctx, key)
	if err != nil {
		return vmc.Bundle{}, err
	}
	defer func() { _ = body.Close() }()
	document, err := io.ReadAll(body)
	if err != nil {
		return vmc.Bundle{}, err
	}
	if expected := ArchiveKey(document); expected != key {
		return vmc.Bundle{}, fmt.Errorf("archive %s: content digest mismatch", key)
	}
	var bundle vmc.Bundle
	if err := json.Unmarshal(document, &bundle); err != nil {
		return vmc.Bundle{}, fmt.Errorf("parse archived bundle %s: %w", key, err)
	}
	return bundle, nil
}

// ListArchives returns the stored bundle documents in key order.
func ListArchives(ctx context.Context, store Store) ([]Info, error) {
	return store.List(ctx, ArchivePrefix)
}

// IsArchiveKey reports whether key names a bundle archive document.
func IsArchiveKey(key string) bool {
	return strings.HasPrefix(key, ArchivePrefix) && strings.HasSuffix(key, ".json")
}
