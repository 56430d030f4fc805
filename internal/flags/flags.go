// Package flags provides feature flags loaded from configuration.
// Flags are read-only after initialization and default to off when unknown.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/waypoint/internal/log"
)

const (
	// FlagChangeDiff attaches a diff against the previous stack description
	// to every change notification.
	FlagChangeDiff = "change-diff"

	// FlagRestoreState restores persisted router stacks at startup.
	FlagRestoreState = "restore-state"
)

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables every flag.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	log.Default().Debug("flags", "feature flags initialized", "count", len(r.flags), "enabled", r.EnabledNames())
	return r
}

// Enabled returns true if the named flag is enabled.
// Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// EnabledNames returns the enabled flags in sorted order.
func (r *Registry) EnabledNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.flags))
	for name, on := range r.flags {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// Known returns the flags the program reads, sorted.
func Known() []string {
	return []string{FlagChangeDiff, FlagRestoreState}
}
