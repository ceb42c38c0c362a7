// Package schema validates untyped JSON payloads against declarative,
// serializable schemas. The same Schema value gates requests on the server
// and is published to clients so they can produce identical field errors
// before submitting.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Type is the expected JSON primitive of a field.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Format is an additional constraint on string fields.
type Format string

const FormatEmail Format = "email"

// Field describes one property of the payload.
type Field struct {
	Name      string `json:"name"`
	Type      Type   `json:"type"`
	Required  bool   `json:"required"`
	Format    Format `json:"format,omitempty"`
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// Schema is an ordered set of fields. Issues are reported in field order.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Issue is a single field-level failure.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload does not satisfy a schema.
// Issues is never empty.
type ValidationError struct {
	Schema string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Path+": "+is.Message)
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Schema, strings.Join(parts, "; "))
}

// FieldErrors groups issue messages by field path.
func (e *ValidationError) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(e.Issues))
	for _, is := range e.Issues {
		out[is.Path] = append(out[is.Path], is.Message)
	}
	return out
}

// Validate checks raw against s. On success it returns a new map holding only
// the fields s declares, coerced to their canonical Go types (string, float64,
// int64, bool). Unknown keys are dropped and null optional fields are treated
// as absent. On failure it returns a *ValidationError listing every offending
// field in schema order; nothing partial is returned.
func Validate(s Schema, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))
	var issues []Issue

	for _, f := range s.Fields {
		v, present := raw[f.Name]
		present = present && v != nil

		var cv any
		if present {
			var msg string
			if cv, msg = f.coerce(v); msg != "" {
				issues = append(issues, Issue{Path: f.Name, Message: msg})
				continue
			}
		}

		if err := validate.Var(f.target(cv, present), f.rule()); err != nil {
			issues = append(issues, Issue{Path: f.Name, Message: message(err)})
			continue
		}
		if present {
			out[f.Name] = cv
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Schema: s.Name, Issues: issues}
	}
	return out, nil
}

// Decode validates raw and materializes the result into T via its json tags.
func Decode[T any](s Schema, raw map[string]any) (T, error) {
	var out T

	clean, err := Validate(s, raw)
	if err != nil {
		return out, err
	}

	b, err := json.Marshal(clean)
	if err != nil {
		return out, fmt.Errorf("%s: encode validated input: %w", s.Name, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%s: decode validated input: %w", s.Name, err)
	}
	return out, nil
}

// coerce converts a decoded JSON value to the Go type of f, or reports why it
// cannot.
func (f Field) coerce(v any) (any, string) {
	switch f.Type {
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return nil, expected(f.Type, v)
		}
		return str, ""

	case TypeNumber:
		n, ok := toFloat(v)
		if !ok {
			return nil, expected(f.Type, v)
		}
		return n, ""

	case TypeInteger:
		return toInteger(v)

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, expected(f.Type, v)
		}
		return b, ""
	}

	return nil, fmt.Sprintf("Unsupported type %q", f.Type)
}

func toInteger(v any) (any, string) {
	if num, ok := v.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, ""
		}
	}

	n, ok := toFloat(v)
	if !ok {
		return nil, expected(TypeInteger, v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return nil, "Expected integer, received float"
	}
	// 2^63 is the first float64 above math.MaxInt64.
	if n < -(1<<63) || n >= 1<<63 {
		return nil, "Number must be a 64-bit integer"
	}
	return int64(n), ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func expected(t Type, v any) string {
	return fmt.Sprintf("Expected %s, received %s", t, kindOf(v))
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
