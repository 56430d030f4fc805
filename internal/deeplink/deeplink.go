// Package deeplink defines the externally sourced navigation requests the
// application accepts and their URL form.
//
// DeepLink is a closed union: Chat and Transportation are its only members.
// Deep links are deliberately independent of any router's destination types;
// the routes package maps each link onto the hierarchy.
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URL scheme of every deep link.
const Scheme = "waypoint"

// ErrInvalid is returned for URLs that do not describe a deep link.
var ErrInvalid = errors.New("invalid deep link")

// DeepLink is one external navigation request.
type DeepLink interface {
	fmt.Stringer
	isDeepLink()
}

// Chat opens the conversation inbox.
type Chat struct{}

func (Chat) isDeepLink() {}

func (Chat) String() string { return "chat" }

// Transportation opens the transportation screen for one mode of transport.
type Transportation struct {
	Type TransportationType
}

func (Transportation) isDeepLink() {}

func (t Transportation) String() string { return "transportation(" + string(t.Type) + ")" }

// TransportationType is a mode of transport.
type TransportationType string

const (
	Bus   TransportationType = "bus"
	Train TransportationType = "train"
	Tram  TransportationType = "tram"
	Ferry TransportationType = "ferry"
	Bike  TransportationType = "bike"
	Taxi  TransportationType = "taxi"
)

// TransportationTypes lists every known mode of transport.
func TransportationTypes() []TransportationType {
	return []TransportationType{Bus, Train, Tram, Ferry, Bike, Taxi}
}

// Valid reports whether t is a known mode of transport.
func (t TransportationType) Valid() bool {
	for _, known := range TransportationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Parse reads a deep link URL:
//
//	waypoint://chat
//	waypoint://transportation/<type>
//	waypoint://transportation?type=<type>
func Parse(raw string) (DeepLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return nil, fmt.Errorf("%w: scheme %q, want %q", ErrInvalid, u.Scheme, Scheme)
	}

	rest := strings.Trim(u.Path, "/")
	switch strings.ToLower(u.Host) {
	case "chat":
		if rest != "" {
			return nil, fmt.Errorf("%w: chat takes no path, got %q", ErrInvalid, rest)
		}
		return Chat{}, nil

	case "transportation":
		kind := rest
		if kind == "" {
			kind = u.Query().Get("type")
		}
		t := TransportationType(strings.ToLower(kind))
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown transportation type %q", ErrInvalid, kind)
		}
		return Transportation{Type: t}, nil

	default:
		return nil, fmt.Errorf("%w: unknown link %q", ErrInvalid, u.Host)
	}
}

// Value returns the value form of l. Pointers to union members satisfy
// DeepLink through their value methods; Value dereferences them so callers
// can switch on the value types alone. A nil pointer panics.
func Value(l DeepLink) DeepLink {
	switch p := l.(type) {
	case *Chat:
		if p == nil {
			panic("deeplink: nil *Chat")
		}
		return *p
	case *Transportation:
		if p == nil {
			panic("deeplink: nil *Transportation")
		}
		return *p
	default:
		return l
	}
}

// Format renders l in the canonical URL form accepted by Parse.
func Format(l DeepLink) string {
	switch l := Value(l).(type) {
	case Chat:
		return Scheme + "://chat"
	case Transportation:
		return Scheme + "://transportation/" + url.PathEscape(string(l.Type))
	default:
		panic(fmt.Sprintf("deeplink: unknown link %T", l))
	}
}
