// Package schema exposes the embedded VMC bundle document schema for runtime use.
package schema

import (
	_ "embed"
	"encoding/json"
	"sync"
)

type versionDoc struct {
	Version string `json:"version"`
}

// Bundle schema content embedded for runtime validation and metadata exposure.
//
//go:embed vmcbundle.schema.json
var bundleSchema []byte

var (
	versionOnce sync.Once
	versionStr  string
	versionErr  error
)

// BundleSchemaVersion returns the schema version declared in the embedded
// bundle document schema (source of truth: docs/schema/vmcbundle.schema.json).
func BundleSchemaVersion() (string, error) {
	versionOnce.Do(func() {
		var doc versionDoc
		versionErr = json.Unmarshal(bundleSchema, &doc)
		if versionErr == nil {
			versionStr = doc.Version
		}
	})
	return versionStr, versionErr
}

// BundleSchemaDocument returns the raw embedded schema bytes.
func BundleSchemaDocument() []byte {
	out := make([]byte, len(bundleSchema))
	copy(out, bundleSchema)
	return out
}
