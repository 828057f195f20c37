package vmc

import "fmt"

// InvalidEntityError reports an entity that cannot be identified because a
// required field or child reference is unset or unresolved. Callers must not
// substitute defaults for missing references; doing so would corrupt the
// content-addressing guarantees.
type InvalidEntityError struct {
	Kind  EntityKind
	Field string
	Ref   string
}

func (e InvalidEntityError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s: %s references unknown record %s", e.Kind, e.Field, e.Ref)
	}
	return fmt.Sprintf("%s: required field %s is unset", e.Kind, e.Field)
}

// MalformedIntervalError reports an interbase interval with start > end.
type MalformedIntervalError struct {
	Start uint64
	End   uint64
}

func (e MalformedIntervalError) Error() string {
	return fmt.Sprintf("malformed interval: start %d > end %d", e.Start, e.End)
}
