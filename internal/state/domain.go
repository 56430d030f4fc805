package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Stack is one router's persisted navigation stack.
type Stack struct {
	// Path locates the router in the hierarchy, e.g. "RootRouter/TabsRouter".
	Path   string
	Router string
	// Data is the stack's JSON envelope encoding.
	Data  []byte
	Depth int
}

// Snapshot is the persisted state of a whole hierarchy at one moment.
type Snapshot struct {
	ID        int64
	GUID      string
	CreatedAt time.Time
	Stacks    []Stack
}

// Find returns the stack saved for the router at path.
func (s *Snapshot) Find(path string) (Stack, bool) {
	for _, st := range s.Stacks {
		if st.Path == path {
			return st, true
		}
	}
	return Stack{}, false
}

// Repository persists snapshots.
type Repository interface {
	// Save inserts s and assigns its ID.
	Save(ctx context.Context, s *Snapshot) error

	// Latest returns the newest snapshot or ErrNotFound.
	Latest(ctx context.Context) (*Snapshot, error)

	// FindByGUID returns the snapshot with guid or ErrNotFound.
	FindByGUID(ctx context.Context, guid string) (*Snapshot, error)

	// List returns up to limit snapshots, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Snapshot, error)

	// Prune deletes all but the newest keep snapshots and reports how many
	// were removed.
	Prune(ctx context.Context, keep int) (int, error)
}
