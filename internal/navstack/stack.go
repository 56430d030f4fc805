// Package navstack implements the type-erased navigation stack.
//
// A Stack stores each pushed destination as an envelope holding its
// discriminant and its JSON payload, so one Stack type serves every router
// regardless of the destination union the router accepts. Typed values are
// recovered on demand with Decode and the owning router's registry; nothing is
// cached, the erased entries are the single source of truth.
package navstack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/zjrosen/waypoint/internal/destination"
)

// Entry is one erased stack element.
type Entry struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`

	// encodeErr records a destination that could not be serialized when it
	// was pushed. Such an entry makes the whole stack undecodable.
	encodeErr error
}

// Stack is an ordered navigation history, oldest first.
//
// A Stack is not safe for concurrent use; routers only touch it from their
// execution context.
type Stack struct {
	entries []Entry
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{entries: make([]Entry, 0)}
}

// Push appends d. It always succeeds; if d cannot be encoded, or its
// encoding does not decode back to d, the entry is still appended and the
// failure surfaces from Decode.
func (s *Stack) Push(d destination.Destination) {
	payload, err := json.Marshal(d)
	if err == nil {
		err = checkRoundTrip(d, payload)
	}
	if err != nil {
		err = fmt.Errorf("encoding %s destination %q: %w", d.Kind(), d.ID(), err)
	}
	s.entries = append(s.entries, Entry{
		Kind:      d.Kind(),
		Payload:   payload,
		encodeErr: err,
	})
}

// errLossyEncoding marks a destination whose JSON form decodes to a
// different value, e.g. a string holding invalid UTF-8.
var errLossyEncoding = errors.New("encoding does not round-trip")

// checkRoundTrip decodes payload into a fresh value of d's type and
// compares it with d.
func checkRoundTrip(d destination.Destination, payload []byte) error {
	want := reflect.ValueOf(d)
	if want.Kind() == reflect.Pointer {
		if want.IsNil() {
			return nil
		}
		want = want.Elem()
	}
	got := reflect.New(want.Type())
	if err := json.Unmarshal(payload, got.Interface()); err != nil {
		return err
	}
	if !reflect.DeepEqual(got.Elem().Interface(), want.Interface()) {
		return errLossyEncoding
	}
	return nil
}

// Pop removes the last count entries and returns how many were removed.
//
// Out-of-range counts are clamped rather than rejected: a count larger than
// the stack empties it, a count of zero or less removes nothing. Pop-to-root
// is Pop(Len()).
func (s *Stack) Pop(count int) int {
	if count <= 0 {
		return 0
	}
	if count > len(s.entries) {
		count = len(s.entries)
	}
	keep := len(s.entries) - count
	clear(s.entries[keep:])
	s.entries = s.entries[:keep]
	return count
}

// Clear removes every entry.
func (s *Stack) Clear() {
	s.Pop(len(s.entries))
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// IsEmpty returns true if the stack has no entries.
func (s *Stack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Entries returns a copy of the erased entries, oldest first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON encodes the stack as a self-describing array of
// {"kind", "payload"} envelopes. It fails if any entry failed to encode
// when it was pushed.
func (s *Stack) MarshalJSON() ([]byte, error) {
	for i, e := range s.entries {
		if e.encodeErr != nil {
			return nil, &DecodeError{Index: i, Kind: e.Kind, Err: e.encodeErr}
		}
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON replaces the stack's entries with the envelopes in data.
//
// Unknown discriminants are accepted here and only fail when decoded against
// a registry. Malformed input returns an error and leaves the stack unchanged.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after stack", ErrUndecodable)
	}
	for i, e := range entries {
		if e.Kind == "" {
			return fmt.Errorf("%w: entry %d has no kind", ErrUndecodable, i)
		}
		if len(e.Payload) == 0 || bytes.Equal(e.Payload, []byte("null")) {
			return fmt.Errorf("%w: entry %d (%s) has no payload", ErrUndecodable, i, e.Kind)
		}
	}
	if entries == nil {
		entries = make([]Entry, 0)
	}
	s.entries = entries
	return nil
}
