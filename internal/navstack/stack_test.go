package navstack

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/waypoint/internal/destination"
)

type testDestination interface {
	destination.Destination
	isTest()
}

type screen string

func (s screen) ID() string { return string(s) }
func (screen) Kind() string { return "screen" }
func (screen) isTest() {}
func (s screen) String() string { return string(s) }

type item struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
}

func (i item) ID() string { return i.Label }
func (item) Kind() string { return "item" }
func (item) isTest() {}
func (i item) String() string { return "item(" + i.Label + ")" }

// broken cannot be encoded: JSON has no representation for NaN.
type broken struct {
	Value float64 `json:"value"`
}

func (broken) ID() string { return "broken" }
func (broken) Kind() string { return "broken" }
func (broken) isTest() {}

func testRegistry() *destination.Registry[testDestination] {
	return destination.NewRegistry("TestRouter",
		destination.Of[testDestination, screen]("screen"),
		destination.Of[testDestination, item]("item"),
		destination.Of[testDestination, broken]("broken"),
	)
}

// narrowRegistry models a newer build that no longer knows "item".
func narrowRegistry() *destination.Registry[testDestination] {
	return destination.NewRegistry("TestRouter",
		destination.Of[testDestination, screen]("screen"),
	)
}

func TestStack_PushPopLen(t *testing.T) {
	s := New()
	require.True(t, s.IsEmpty())

	s.Push(screen("home"))
	s.Push(item{Number: 1, Label: "a"})
	s.Push(screen("settings"))
	require.Equal(t, 3, s.Len())
	require.False(t, s.IsEmpty())

	require.Equal(t, 1, s.Pop(1))
	last, ok := Last(s, testRegistry())
	require.True(t, ok)
	require.Equal(t, item{Number: 1, Label: "a"}, last)
}

func TestStack_PopClamps(t *testing.T) {
	s := New()
	s.Push(screen("a"))
	s.Push(screen("b"))

	require.Equal(t, 0, s.Pop(0))
	require.Equal(t, 0, s.Pop(-3))
	require.Equal(t, 2, s.Len())

	require.Equal(t, 2, s.Pop(10))
	require.True(t, s.IsEmpty())
	require.Equal(t, 0, s.Pop(1), "popping an empty stack removes nothing")
}

func TestStack_Clear(t *testing.T) {
	s := New()
	s.Push(screen("a"))
	s.Clear()
	require.True(t, s.IsEmpty())
}

func TestDecode_PreservesOrder(t *testing.T) {
	s := New()
	want := []testDestination{screen("home"), item{Number: 2, Label: "b"}, screen("end")}
	for _, d := range want {
		s.Push(d)
	}

	got, err := Decode(s, testRegistry())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecode_UnknownKindIsUndecodable(t *testing.T) {
	s := New()
	s.Push(screen("home"))
	s.Push(item{Number: 1, Label: "gone"})

	_, err := Decode(s, narrowRegistry())
	require.ErrorIs(t, err, ErrUndecodable)
	require.ErrorIs(t, err, destination.ErrUnknownKind)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 1, decodeErr.Index)
	require.Equal(t, "item", decodeErr.Kind)
}

func TestDecode_EncodeFailureIsUndecodable(t *testing.T) {
	s := New()
	s.Push(broken{Value: math.NaN()})
	require.Equal(t, 1, s.Len(), "push always succeeds")

	_, err := Decode(s, testRegistry())
	require.ErrorIs(t, err, ErrUndecodable)

	_, err = json.Marshal(s)
	require.Error(t, err)
}

func TestDecode_LossyEncodingIsUndecodable(t *testing.T) {
	s := New()
	s.Push(item{Number: 1, Label: "S\xff1"})
	require.Equal(t, 1, s.Len(), "push always succeeds")

	_, err := Decode(s, testRegistry())
	require.ErrorIs(t, err, ErrUndecodable)
	require.ErrorIs(t, err, errLossyEncoding)

	found, err := Contains(s, testRegistry(), testDestination(item{Label: "S\xff1"}))
	require.Error(t, err)
	require.False(t, found)
}

func TestContains_ByIdentity(t *testing.T) {
	s := New()
	s.Push(item{Number: 1, Label: "a"})

	found, err := Contains(s, testRegistry(), testDestination(item{Number: 99, Label: "a"}))
	require.NoError(t, err)
	require.True(t, found, "same id, different payload")

	found, err = Contains(s, testRegistry(), testDestination(item{Number: 1, Label: "z"}))
	require.NoError(t, err)
	require.False(t, found)
}

func TestContains_UndecodableIsFalse(t *testing.T) {
	s := New()
	s.Push(item{Number: 1, Label: "a"})

	found, err := Contains(s, narrowRegistry(), testDestination(screen("a")))
	require.ErrorIs(t, err, ErrUndecodable)
	require.False(t, found)
}

func TestDescribe(t *testing.T) {
	s := New()
	require.Equal(t, "empty", Describe(s, testRegistry()))

	s.Push(screen("inbox"))
	require.Equal(t, "inbox", Describe(s, testRegistry()))

	s.Push(item{Number: 1, Label: "a"})
	require.Equal(t, "inbox → item(a)", Describe(s, testRegistry()))

	s.Push(screen("x"))
	require.Equal(t, "items[3]", Describe(s, narrowRegistry()), "count-only fallback when undecodable")
}

func TestLast_EmptyAndUndecodable(t *testing.T) {
	s := New()
	_, ok := Last(s, testRegistry())
	require.False(t, ok)

	s.Push(item{Number: 1, Label: "a"})
	_, ok = Last(s, narrowRegistry())
	require.False(t, ok)
}

func TestJSON_RoundTrip(t *testing.T) {
	s := New()
	s.Push(screen("home"))
	s.Push(item{Number: 3, Label: "c"})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `[{"kind":"screen","payload":"home"},{"kind":"item","payload":{"number":3,"label":"c"}}]`, string(data))

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))

	got, err := Decode(restored, testRegistry())
	require.NoError(t, err)
	require.Equal(t, []testDestination{screen("home"), item{Number: 3, Label: "c"}}, got)
}

func TestUnmarshal_UnknownKindAcceptedUntilDecode(t *testing.T) {
	s := New()
	require.NoError(t, json.Unmarshal([]byte(`[{"kind":"removed","payload":{}}]`), s))
	require.Equal(t, 1, s.Len())

	_, err := Decode(s, testRegistry())
	require.ErrorIs(t, err, ErrUndecodable)
	require.Equal(t, "items[1]", Describe(s, testRegistry()))
}

func TestUnmarshal_MalformedLeavesStackUnchanged(t *testing.T) {
	inputs := []string{
		``,
		`{`,
		`{"kind":"screen"}`,
		`[{"kind":"","payload":"x"}]`,
		`[{"kind":"screen"}]`,
		`[{"kind":"screen","payload":null}]`,
		`[{"kind":"screen","payload":"x","extra":1}]`,
		`[] []`,
		`[]]`,
	}

	for _, in := range inputs {
		s := New()
		s.Push(screen("keep"))

		err := s.UnmarshalJSON([]byte(in))
		require.ErrorIs(t, err, ErrUndecodable, "input %q", in)
		require.Equal(t, "keep", Describe(s, testRegistry()), "input %q", in)
	}
}

// ============================================================================
// Property-Based Tests
// ============================================================================

func drawDestination(t *rapid.T, label string) testDestination {
	if rapid.Bool().Draw(t, label+"-isScreen") {
		return screen(rapid.StringMatching(`[a-z]{1,8}`).Draw(t, label+"-screen"))
	}
	return item{
		Number: rapid.IntRange(-1000, 1000).Draw(t, label+"-number"),
		Label:  rapid.String().Draw(t, label+"-label"),
	}
}

func drawStack(t *rapid.T) (*Stack, []testDestination) {
	n := rapid.IntRange(0, 20).Draw(t, "n")
	s := New()
	pushed := make([]testDestination, 0, n)
	for i := 0; i < n; i++ {
		d := drawDestination(t, "d")
		s.Push(d)
		pushed = append(pushed, d)
	}
	return s, pushed
}

// TestProperty_RoundTrip verifies decode(encode(stack)) reproduces the pushed sequence.
func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, pushed := drawStack(t)

		data, err := json.Marshal(s)
		require.NoError(t, err)

		restored := New()
		require.NoError(t, json.Unmarshal(data, restored))

		got, err := Decode(restored, testRegistry())
		require.NoError(t, err)
		require.Equal(t, pushed, got)
	})
}

// TestProperty_ArbitraryBytesRoundTripOrFail verifies a label drawn from
// arbitrary bytes either decodes back unchanged or makes the stack
// undecodable; it is never silently altered.
func TestProperty_ArbitraryBytesRoundTripOrFail(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		label := string(rapid.SliceOf(rapid.Byte()).Draw(t, "label"))
		d := item{Number: 1, Label: label}

		s := New()
		s.Push(d)

		got, err := Decode(s, testRegistry())
		if !utf8.ValidString(label) {
			require.ErrorIs(t, err, ErrUndecodable)
			return
		}
		require.NoError(t, err)
		require.Equal(t, []testDestination{d}, got)

		found, err := Contains(s, testRegistry(), testDestination(d))
		require.NoError(t, err)
		require.True(t, found)
	})
}

// TestProperty_PopClamp verifies any count beyond the length empties the stack.
func TestProperty_PopClamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, pushed := drawStack(t)
		extra := rapid.IntRange(1, 50).Draw(t, "extra")

		removed := s.Pop(len(pushed) + extra)
		require.Equal(t, len(pushed), removed)
		require.True(t, s.IsEmpty())
	})
}

// TestProperty_PopToRoot verifies Pop(Len()) always leaves an empty stack.
func TestProperty_PopToRoot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _ := drawStack(t)
		s.Pop(s.Len())
		require.True(t, s.IsEmpty())
	})
}

// TestProperty_ContainsIffID verifies membership is decided by id alone.
func TestProperty_ContainsIffID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, pushed := drawStack(t)
		candidate := drawDestination(t, "candidate")

		want := false
		for _, d := range pushed {
			if d.ID() == candidate.ID() {
				want = true
				break
			}
		}

		got, err := Contains(s, testRegistry(), candidate)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})
}

// TestProperty_UnmarshalIsTotal verifies arbitrary bytes never panic.
func TestProperty_UnmarshalIsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		s := New()
		require.NotPanics(t, func() {
			if err := s.UnmarshalJSON(data); err == nil {
				_, _ = Decode(s, testRegistry())
				_ = Describe(s, testRegistry())
			}
		})
	})
}
