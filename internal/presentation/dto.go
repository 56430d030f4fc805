// Package presentation renders command results as JSON for scripting.
package presentation

import (
	"sort"
	"time"

	"github.com/zjrosen/waypoint/internal/dispatch"
	"github.com/zjrosen/waypoint/internal/state"
)

// SnapshotDTO represents a saved snapshot for presentation
type SnapshotDTO struct {
	GUID      string     `json:"guid"`
	CreatedAt time.Time  `json:"created_at"`
	Stacks    []StackDTO `json:"stacks"`
}

// StackDTO represents one router's saved stack
type StackDTO struct {
	Path   string `json:"path"`
	Router string `json:"router"`
	Depth  int    `json:"depth"`
	// Description is filled in when the stack was applied to a hierarchy.
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Stack statuses reported after applying a snapshot.
const (
	StatusRestored    = "restored"
	StatusUndecodable = "undecodable"
	StatusRejected    = "rejected"
)

// SnapshotSummaryDTO is one line of a snapshot listing
type SnapshotSummaryDTO struct {
	GUID      string    `json:"guid"`
	CreatedAt time.Time `json:"created_at"`
	Stacks    int       `json:"stacks"`
	Entries   int       `json:"entries"`
}

// DispatchDTO represents one applied deep link
type DispatchDTO struct {
	ID      string `json:"id"`
	Link    string `json:"link"`
	Section string `json:"section"`
}

// FromSnapshot converts a snapshot. describe, when non-nil, supplies the
// description of the stack at a path.
func FromSnapshot(s *state.Snapshot, report *state.RestoreReport, describe func(path string) string) SnapshotDTO {
	dto := SnapshotDTO{
		GUID:      s.GUID,
		CreatedAt: s.CreatedAt,
		Stacks:    make([]StackDTO, len(s.Stacks)),
	}
	for i, st := range s.Stacks {
		sd := StackDTO{Path: st.Path, Router: st.Router, Depth: st.Depth}
		if describe != nil {
			sd.Description = describe(st.Path)
		}
		if report != nil {
			sd.Status = statusOf(st.Path, report)
		}
		dto.Stacks[i] = sd
	}
	sort.SliceStable(dto.Stacks, func(i, j int) bool { return dto.Stacks[i].Path < dto.Stacks[j].Path })
	return dto
}

func statusOf(path string, r *state.RestoreReport) string {
	if _, ok := r.Rejected[path]; ok {
		return StatusRejected
	}
	for _, p := range r.Undecodable {
		if p == path {
			return StatusUndecodable
		}
	}
	for _, p := range r.Restored {
		if p == path {
			return StatusRestored
		}
	}
	return ""
}

// FromSnapshots converts a listing, keeping its order.
func FromSnapshots(snaps []*state.Snapshot) []SnapshotSummaryDTO {
	out := make([]SnapshotSummaryDTO, len(snaps))
	for i, s := range snaps {
		entries := 0
		for _, st := range s.Stacks {
			entries += st.Depth
		}
		out[i] = SnapshotSummaryDTO{
			GUID:      s.GUID,
			CreatedAt: s.CreatedAt,
			Stacks:    len(s.Stacks),
			Entries:   entries,
		}
	}
	return out
}

// FromDispatch converts a dispatch result.
func FromDispatch(link string, r dispatch.Result) DispatchDTO {
	return DispatchDTO{ID: r.ID, Link: link, Section: string(r.Section)}
}
