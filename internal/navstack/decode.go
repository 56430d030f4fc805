package navstack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/waypoint/internal/destination"
)

// ErrUndecodable marks a stack that cannot be reinterpreted with a registry.
var ErrUndecodable = errors.New("navigation stack is undecodable")

// DecodeError reports the first entry that could not be decoded.
type DecodeError struct {
	Index int    // position in the stack, oldest first
	Kind  string // discriminant of the entry
	Err   error  // underlying cause
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("navstack: entry %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrUndecodable.
func (e *DecodeError) Is(target error) bool {
	return target == ErrUndecodable
}

// Decode reinterprets the erased stack as typed destinations of the union D.
//
// The result is all-or-nothing: an entry whose discriminant is not in reg, an
// entry with a malformed payload, or an entry that failed to encode when
// pushed makes the whole stack undecodable. The returned error then matches
// ErrUndecodable and is a *DecodeError.
func Decode[D destination.Destination](s *Stack, reg *destination.Registry[D]) ([]D, error) {
	out := make([]D, 0, len(s.entries))
	for i, e := range s.entries {
		if e.encodeErr != nil {
			return nil, &DecodeError{Index: i, Kind: e.Kind, Err: e.encodeErr}
		}
		d, err := reg.Decode(e.Kind, e.Payload)
		if err != nil {
			return nil, &DecodeError{Index: i, Kind: e.Kind, Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

// Last returns the most recent entry decoded with reg.
// ok is false when the stack is empty or undecodable.
func Last[D destination.Destination](s *Stack, reg *destination.Registry[D]) (d D, ok bool) {
	decoded, err := Decode(s, reg)
	if err != nil || len(decoded) == 0 {
		return d, false
	}
	return decoded[len(decoded)-1], true
}

// Contains reports whether a destination with the same ID as d is on the
// stack. Membership is by identity, not structural equality. On an
// undecodable stack it returns false together with the decode error.
func Contains[D destination.Destination](s *Stack, reg *destination.Registry[D], d D) (bool, error) {
	decoded, err := Decode(s, reg)
	if err != nil {
		return false, err
	}
	id := d.ID()
	for _, item := range decoded {
		if item.ID() == id {
			return true, nil
		}
	}
	return false, nil
}

// Describe renders the stack for humans: decoded values joined by arrows,
// "empty" for an empty stack, or "items[N]" when the stack cannot be decoded.
func Describe[D destination.Destination](s *Stack, reg *destination.Registry[D]) string {
	if s.IsEmpty() {
		return "empty"
	}
	decoded, err := Decode(s, reg)
	if err != nil {
		return fmt.Sprintf("items[%d]", s.Len())
	}
	parts := make([]string, len(decoded))
	for i, d := range decoded {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, " → ")
}
