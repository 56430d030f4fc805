package testutil

import (
	"context"
	"path"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/waypoint/internal/state"
)

// Builder accumulates router stacks and produces a snapshot.
type Builder struct {
	t      *testing.T
	guid   string
	at     time.Time
	stacks []stackData
}

// NewBuilder creates a snapshot builder with a fresh GUID, stamped now.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, guid: uuid.NewString(), at: time.Now()}
}

// WithGUID replaces the generated GUID.
func (b *Builder) WithGUID(guid string) *Builder {
	b.guid = guid
	return b
}

// At sets the snapshot time.
func (b *Builder) At(at time.Time) *Builder {
	b.at = at
	return b
}

// WithStack sets the stack saved for the router at routerPath, replacing
// one added earlier. The router name is the last path element and the
// depth is counted from data unless WithDepth is given.
func (b *Builder) WithStack(routerPath, data string, opts ...StackOption) *Builder {
	s := stackData{path: routerPath, data: []byte(data), depth: depthOf([]byte(data))}
	for _, opt := range opts {
		opt(&s)
	}
	if i := slices.IndexFunc(b.stacks, func(e stackData) bool { return e.path == routerPath }); i >= 0 {
		b.stacks[i] = s
		return b
	}
	b.stacks = append(b.stacks, s)
	return b
}

// Build returns the snapshot.
func (b *Builder) Build() *state.Snapshot {
	snap := &state.Snapshot{GUID: b.guid, CreatedAt: b.at}
	for _, s := range b.stacks {
		snap.Stacks = append(snap.Stacks, state.Stack{
			Path:   s.path,
			Router: path.Base(s.path),
			Data:   s.data,
			Depth:  s.depth,
		})
	}
	return snap
}

// Save builds the snapshot and stores it in repo.
func (b *Builder) Save(repo state.Repository) *state.Snapshot {
	b.t.Helper()
	snap := b.Build()
	require.NoError(b.t, repo.Save(context.Background(), snap))
	return snap
}
