// Package destination defines navigable destinations and the per-router
// registry of destination variants used to decode type-erased stacks.
//
// A router declares its destinations as a sealed union: an interface that
// embeds Destination plus an unexported marker method, implemented by a small
// closed set of concrete value types. Each concrete type is one variant and is
// identified on the wire by its discriminant (Kind).
package destination

import (
	"encoding/json"
	"fmt"
)

// Destination identifies one navigable target.
//
// Implementations must be comparable value types whose JSON encoding round
// trips losslessly. Kind must return the same constant for every value of a
// given concrete type.
type Destination interface {
	ID() string
	Kind() string
}

// Variant describes one concrete destination type accepted by a Registry.
type Variant[D Destination] struct {
	kind   string
	decode func(raw json.RawMessage) (D, error)
}

// Kind returns the discriminant this variant decodes.
func (v Variant[D]) Kind() string { return v.kind }

// Of declares T as a variant of the union D under the discriminant kind.
//
// Panics if T does not implement D or if T's Kind does not match kind; both
// are wiring bugs in a router's declaration.
func Of[D Destination, T any](kind string) Variant[D] {
	var zero T
	d, ok := any(zero).(D)
	if !ok {
		panic(fmt.Sprintf("destination: %T does not implement the router union for kind %q", zero, kind))
	}
	if d.Kind() != kind {
		panic(fmt.Sprintf("destination: %T reports kind %q, declared as %q", zero, d.Kind(), kind))
	}

	return Variant[D]{
		kind: kind,
		decode: func(raw json.RawMessage) (D, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				var none D
				return none, err
			}
			return any(v).(D), nil
		},
	}
}
