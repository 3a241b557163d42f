package sim

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// defaultLiteral is the YAML scalar that selects ResetToDefault.
const defaultLiteral = "default"

type overrideKind uint8

const (
	overrideUnset overrideKind = iota
	overrideDefault
	overrideValue
)

// Override is a sparse field update with three states: Unset (leave the field
// alone), ResetToDefault (restore the owner's init-state value) and Value (set
// it explicitly). The zero value is Unset.
type Override[T any] struct {
	kind  overrideKind
	value T
}

// Unset returns an override that leaves the field untouched.
func Unset[T any]() Override[T] { return Override[T]{} }

// ResetToDefault returns an override that restores the init-state value.
func ResetToDefault[T any]() Override[T] { return Override[T]{kind: overrideDefault} }

// Set returns an override carrying an explicit value.
func Set[T any](v T) Override[T] { return Override[T]{kind: overrideValue, value: v} }

func (o Override[T]) IsUnset() bool   { return o.kind == overrideUnset }
func (o Override[T]) IsDefault() bool { return o.kind == overrideDefault }
func (o Override[T]) IsValue() bool   { return o.kind == overrideValue }

// Value returns the explicit value and whether one is present.
func (o Override[T]) Value() (T, bool) {
	return o.value, o.kind == overrideValue
}

// Apply resolves the override against the field's current and init values.
func (o Override[T]) Apply(current, init T) T {
	switch o.kind {
	case overrideDefault:
		return init
	case overrideValue:
		return o.value
	default:
		return current
	}
}

func (o Override[T]) String() string {
	switch o.kind {
	case overrideDefault:
		return defaultLiteral
	case overrideValue:
		return fmt.Sprintf("%v", o.value)
	default:
		return "unset"
	}
}

// UnmarshalYAML accepts the literal "default" or a value of T.
// A missing key never reaches here and stays Unset.
func (o *Override[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Value == defaultLiteral {
		*o = ResetToDefault[T]()
		return nil
	}
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}

// MarshalYAML is the inverse of UnmarshalYAML; Unset fields should be tagged omitempty.
func (o Override[T]) MarshalYAML() (any, error) {
	switch o.kind {
	case overrideDefault:
		return defaultLiteral, nil
	case overrideValue:
		return o.value, nil
	default:
		return nil, nil
	}
}

// IsZero lets yaml.v3 omit Unset overrides under omitempty.
func (o Override[T]) IsZero() bool { return o.kind == overrideUnset }
