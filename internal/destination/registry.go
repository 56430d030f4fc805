package destination

import (
	"encoding/json"
	"fmt"
)

// Registry is the closed, ordered set of variants a router's stack may hold.
// It is read-only after construction and safe to share between goroutines.
type Registry[D Destination] struct {
	name     string
	kinds    []string
	variants map[string]Variant[D]
}

// NewRegistry builds the registry for one router type.
//
// Panics if no variants are given or a discriminant is declared twice: a
// router without a registry, or with an ambiguous one, cannot decode its stack.
func NewRegistry[D Destination](name string, variants ...Variant[D]) *Registry[D] {
	if len(variants) == 0 {
		panic(fmt.Sprintf("destination: router %s must declare at least one destination variant", name))
	}

	r := &Registry[D]{
		name:     name,
		kinds:    make([]string, 0, len(variants)),
		variants: make(map[string]Variant[D], len(variants)),
	}
	for _, v := range variants {
		if v.decode == nil {
			panic(fmt.Sprintf("destination: router %s declares an uninitialized variant; use destination.Of", name))
		}
		if _, dup := r.variants[v.kind]; dup {
			panic(fmt.Sprintf("destination: router %s declares kind %q twice", name, v.kind))
		}
		r.kinds = append(r.kinds, v.kind)
		r.variants[v.kind] = v
	}
	return r
}

// Name returns the router type the registry belongs to.
func (r *Registry[D]) Name() string { return r.name }

// Kinds returns the registered discriminants in declaration order.
func (r *Registry[D]) Kinds() []string {
	out := make([]string, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Has reports whether kind is a registered discriminant.
func (r *Registry[D]) Has(kind string) bool {
	_, ok := r.variants[kind]
	return ok
}

// Decode reconstructs one typed destination from its discriminant and payload.
// Returns ErrUnknownKind when kind is not registered.
func (r *Registry[D]) Decode(kind string, payload json.RawMessage) (D, error) {
	v, ok := r.variants[kind]
	if !ok {
		var none D
		return none, fmt.Errorf("%w: %q not in %s", ErrUnknownKind, kind, r.name)
	}
	d, err := v.decode(payload)
	if err != nil {
		return d, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return d, nil
}
