package vmc

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
)

// DefaultNamespace is the namespace computed identifiers are minted under
// when the caller does not override it.
const DefaultNamespace = "VMC"

// truncatedDigestSize is the number of SHA-512 output bytes retained before
// base64url encoding, yielding exactly 32 identifier characters.
const truncatedDigestSize = 24

// Short type codes embedded in accessions for human legibility and fast
// dispatch. Cross-type digest collisions are already prevented by the type
// tag inside the canonical string.
var typeCodes = map[EntityKind]string{
	KindSequence:  "GS",
	KindLocation:  "GL",
	KindAllele:    "GA",
	KindHaplotype: "GH",
	KindGenotype:  "GG",
}

// TypeCode returns the two-letter accession prefix for an entity kind.
func TypeCode(kind EntityKind) (string, bool) {
	code, ok := typeCodes[kind]
	return code, ok
}

// Digest hashes blob with SHA-512, truncates to the first 24 bytes, and
// encodes them with the unpadded URL-safe base64 alphabet.
func Digest(blob []byte) string {
	sum := sha512.Sum512(blob)
	return base64.RawURLEncoding.EncodeToString(sum[:truncatedDigestSize])
}

// ComputeAccession derives the type-tagged accession ("GA_<digest>") for an
// entity from its canonical string. It is a pure function: identical content
// always yields the identical accession.
func ComputeAccession(entity Entity) (string, error) {
	canonical, err := CanonicalString(entity)
	if err != nil {
		return "", err
	}
	code, ok := typeCodes[entity.Kind()]
	if !ok {
		return "", fmt.Errorf("compute accession: no type code for kind %q", entity.Kind())
	}
	return code + "_" + Digest([]byte(canonical)), nil
}

// ComputeIdentifier derives the full computed identifier for an entity under
// the default namespace.
func ComputeIdentifier(entity Entity) (Identifier, error) {
	acc, err := ComputeAccession(entity)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Namespace: DefaultNamespace, Accession: acc}, nil
}

// ComputeID is a convenience wrapper returning the rendered identifier
// string, e.g. "VMC:GA_xxFfNurRCKZzIfMUvL76UxCkFdQSyf5v".
func ComputeID(entity Entity) (string, error) {
	id, err := ComputeIdentifier(entity)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SequenceIdentifier digests raw sequence bytes into a sequence identifier.
// The bytes are consumed transiently; the engine never retains them.
func SequenceIdentifier(data []byte) Identifier {
	return Identifier{Namespace: DefaultNamespace, Accession: "GS_" + Digest(data)}
}
