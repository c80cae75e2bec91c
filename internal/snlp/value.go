package snlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind discriminates the three forms a declaration value can take.
type ValueKind int

const (
	// ScalarValue is an inline quoted string captured on the declaration line.
	ScalarValue ValueKind = iota
	// StructuredValue is a block that parsed as a YAML mapping or sequence.
	StructuredValue
	// RawValue is a block that failed structured parsing and is kept verbatim.
	RawValue
)

// Value is the tagged variant for declaration values. Downstream consumers
// switch on Kind instead of probing types at runtime.
type Value struct {
	Kind       ValueKind
	Scalar     string
	Raw        string
	Structured any

	// node keeps the parsed YAML tree for structured values so callers can
	// walk mappings in document order (decoding into a Go map loses it).
	node *yaml.Node
}

// NewScalar returns an inline scalar value.
func NewScalar(s string) Value {
	return Value{Kind: ScalarValue, Scalar: s}
}

// NewRaw returns a raw-text value.
func NewRaw(s string) Value {
	return Value{Kind: RawValue, Raw: s}
}

// Node returns the YAML node backing a structured value, or nil.
func (v Value) Node() *yaml.Node {
	return v.node
}

// Mapping returns the structured value as a map, or false if the value is
// not a structured mapping.
func (v Value) Mapping() (map[string]any, bool) {
	if v.Kind != StructuredValue {
		return nil, false
	}
	m, ok := v.Structured.(map[string]any)
	return m, ok
}

// Sequence returns the structured value as a slice, or false if the value
// is not a structured sequence.
func (v Value) Sequence() ([]any, bool) {
	if v.Kind != StructuredValue {
		return nil, false
	}
	s, ok := v.Structured.([]any)
	return s, ok
}

// StringSlice flattens a structured sequence into strings. Non-string
// elements are rendered with fmt. Returns nil for non-sequence values.
func (v Value) StringSlice() []string {
	seq, ok := v.Sequence()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

// Text renders the value as plain text for prompt assembly. Structured
// values are re-marshaled as YAML.
func (v Value) Text() string {
	switch v.Kind {
	case ScalarValue:
		return v.Scalar
	case RawValue:
		return v.Raw
	case StructuredValue:
		b, err := yaml.Marshal(v.Structured)
		if err != nil {
			return fmt.Sprintf("%v", v.Structured)
		}
		return strings.TrimRight(string(b), "\n")
	}
	return ""
}

// MarshalJSON renders scalars and raw text as strings and structured
// values as their decoded form, so contexts serialize cleanly over MCP.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ScalarValue:
		return json.Marshal(v.Scalar)
	case RawValue:
		return json.Marshal(v.Raw)
	case StructuredValue:
		return json.Marshal(v.Structured)
	}
	return json.Marshal(nil)
}

func (v Value) String() string {
	return v.Text()
}
