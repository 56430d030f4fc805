package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stackData holds one router stack to be added to a snapshot.
type stackData struct {
	path  string
	data  []byte
	depth int
}

// StackOption configures a stack during builder setup.
type StackOption func(*stackData)

// WithDepth overrides the depth counted from the stack data.
func WithDepth(depth int) StackOption {
	return func(s *stackData) {
		s.depth = depth
	}
}

// Entry encodes one destination envelope the way routers store it.
func Entry(kind string, payload any) string {
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding %s payload: %v", kind, err))
	}
	return fmt.Sprintf(`{"kind":%q,"payload":%s}`, kind, data)
}

// Entries joins envelopes into a stack encoding.
func Entries(entries ...string) string {
	return "[" + strings.Join(entries, ",") + "]"
}

// depthOf counts the entries of a JSON array, or 0 for anything else.
func depthOf(data []byte) int {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0
	}
	return len(items)
}
