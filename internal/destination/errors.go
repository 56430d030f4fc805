package destination

import "errors"

// ErrUnknownKind is returned when a discriminant is not part of a registry.
var ErrUnknownKind = errors.New("unknown destination kind")
