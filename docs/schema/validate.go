package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"
)

const (
	schemaTypeObject     = "object"
	schemaTypeArray      = "array"
	schemaTypeString     = "string"
	schemaFormatDateTime = "date-time"
)

// SchemaValidationError reports a single document location that failed schema
// validation. Path uses JSON-pointer-like dotted notation rooted at "$".
type SchemaValidationError struct {
	Path   string
	Reason string
}

func (e SchemaValidationError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

// additionalProps models the two JSON Schema encodings of
// additionalProperties: a boolean toggle or a full subschema applied to every
// property not named in properties. The subschema form carries the bundle's
// map sections, whose keys are computed identifiers.
type additionalProps struct {
	Allowed *bool
	Schema  *jsonSchema
}

func (a *additionalProps) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == 't' || trimmed[0] == 'f') {
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		a.Allowed = &b
		return nil
	}
	var s jsonSchema
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	a.Schema = &s
	return nil
}

type jsonSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Version              string                 `json:"version,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Items                *jsonSchema            `json:"items,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Format               string                 `json:"format,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	AdditionalProperties *additionalProps       `json:"additionalProperties,omitempty"`
	patternRE            *regexp.Regexp         `json:"-"`
}

var (
	schemaOnce   sync.Once
	parsedSchema *jsonSchema
	parseErr     error
)

// bundleJSONSchema parses and sanity-checks the embedded schema once.
func bundleJSONSchema() (*jsonSchema, error) {
	schemaOnce.Do(func() {
		var s jsonSchema
		if parseErr = json.Unmarshal(bundleSchema, &s); parseErr != nil {
			parseErr = fmt.Errorf("parse bundle schema: %w", parseErr)
			return
		}
		if parseErr = validateSchema(&s, "$"); parseErr == nil {
			parsedSchema = &s
		}
	})
	return parsedSchema, parseErr
}

// validateSchema rejects schema constructs outside the supported subset and
// compiles string patterns in place.
func validateSchema(schema *jsonSchema, path string) error {
	if schema == nil {
		return fmt.Errorf("%s: schema is nil", path)
	}
	if schema.MinItems != nil && *schema.MinItems < 0 {
		return fmt.Errorf("%s: minItems must be >= 0", path)
	}
	if schema.MinLength != nil && *schema.MinLength < 0 {
		return fmt.Errorf("%s: minLength must be >= 0", path)
	}
	if len(schema.Enum) > 0 && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: enum only supported for string type", path)
	}
	if schema.Format != "" && (schema.Type != schemaTypeString || schema.Format != schemaFormatDateTime) {
		return fmt.Errorf("%s: unsupported format %q for type %q", path, schema.Format, schema.Type)
	}
	if schema.Pattern != "" && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: pattern only supported for string type", path)
	}
	if schema.Pattern != "" && schema.patternRE == nil {
		compiled, err := regexp.Compile(schema.Pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", path, schema.Pattern, err)
		}
		schema.patternRE = compiled
	}
	if schema.MinLength != nil && schema.Type != schemaTypeString {
		return fmt.Errorf("%s: minLength only supported for string type", path)
	}
	if schema.MinItems != nil && schema.Type != schemaTypeArray {
		return fmt.Errorf("%s: minItems only supported for array type", path)
	}
	switch schema.Type {
	case schemaTypeObject:
		for _, req := range schema.Required {
			if _, ok := schema.Properties[req]; !ok {
				return fmt.Errorf("%s: required property %q not defined", path, req)
			}
		}
		for key, prop := range schema.Properties {
			if prop == nil {
				return fmt.Errorf("%s.%s: property schema is nil", path, key)
			}
			if err := validateSchema(prop, path+"."+key); err != nil {
				return err
			}
		}
		if schema.AdditionalProperties != nil && schema.AdditionalProperties.Schema != nil {
			if err := validateSchema(schema.AdditionalProperties.Schema, path+".*"); err != nil {
				return err
			}
		}
	case schemaTypeArray:
		if schema.Items == nil {
			return fmt.Errorf("%s: array schema missing items", path)
		}
		if err := validateSchema(schema.Items, path+"[]"); err != nil {
			return err
		}
	case schemaTypeString:
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, schema.Type)
	}
	return nil
}

// ValidateBundleDocument checks a serialized bundle document against the
// embedded schema. The first failing location is returned as a
// SchemaValidationError.
func ValidateBundleDocument(data []byte) error {
	schema, err := bundleJSONSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return SchemaValidationError{Path: "$", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return validateValue(doc, schema, "$")
}

func validateValue(value any, schema *jsonSchema, path string) error {
	if schema == nil {
		return SchemaValidationError{Path: path, Reason: "schema is nil"}
	}
	switch schema.Type {
	case schemaTypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return SchemaValidationError{Path: path, Reason: "expected object"}
		}
		for _, req := range schema.Required {
			if _, ok := m[req]; !ok {
				return SchemaValidationError{Path: path, Reason: fmt.Sprintf("missing required property %q", req)}
			}
		}
		for key, val := range m {
			propSchema, ok := schema.Properties[key]
			if !ok {
				if schema.AdditionalProperties == nil {
					continue
				}
				if schema.AdditionalProperties.Allowed != nil && !*schema.AdditionalProperties.Allowed {
					return SchemaValidationError{Path: path, Reason: fmt.Sprintf("unknown property %q", key)}
				}
				if schema.AdditionalProperties.Schema != nil {
					if err := validateValue(val, schema.AdditionalProperties.Schema, path+"."+key); err != nil {
						return err
					}
				}
				continue
			}
			if err := validateValue(val, propSchema, path+"."+key); err != nil {
				return err
			}
		}
	case schemaTypeArray:
		list, ok := value.([]any)
		if !ok {
			return SchemaValidationError{Path: path, Reason: "expected array"}
		}
		if schema.MinItems != nil && len(list) < *schema.MinItems {
			return SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected at least %d items", *schema.MinItems)}
		}
		for i, item := range list {
			if err := validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case schemaTypeString:
		str, ok := value.(string)
		if !ok {
			return SchemaValidationError{Path: path, Reason: "expected string"}
		}
		if schema.MinLength != nil && len(str) < *schema.MinLength {
			return SchemaValidationError{Path: path, Reason: fmt.Sprintf("expected min length %d", *schema.MinLength)}
		}
		if len(schema.Enum) > 0 && !stringInSlice(str, schema.Enum) {
			return SchemaValidationError{Path: path, Reason: fmt.Sprintf("value %q not in enum", str)}
		}
		if schema.Pattern != "" {
			if schema.patternRE == nil {
				return SchemaValidationError{Path: path, Reason: fmt.Sprintf("pattern %q not compiled", schema.Pattern)}
			}
			if !schema.patternRE.MatchString(str) {
				return SchemaValidationError{Path: path, Reason: fmt.Sprintf("value %q does not match pattern", str)}
			}
		}
		if schema.Format == schemaFormatDateTime {
			if _, err := time.Parse(time.RFC3339, str); err != nil {
				return SchemaValidationError{Path: path, Reason: fmt.Sprintf("invalid timestamp %q", str)}
			}
		}
	default:
		return SchemaValidationError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", schema.Type)}
	}
	return nil
}

func stringInSlice(value string, values []string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
