package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	at := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	snap := NewBuilder(t).
		WithGUID("g-1").
		At(at).
		WithStack(TabCPath, Conversation(7)).
		WithStack(TabBPath, `{`, WithDepth(3)).
		Build()

	require.Equal(t, "g-1", snap.GUID)
	require.Equal(t, at, snap.CreatedAt)
	require.Len(t, snap.Stacks, 2)

	c := snap.Stacks[0]
	require.Equal(t, "TabCRouter", c.Router)
	require.Equal(t, 2, c.Depth)
	require.JSONEq(t, `[{"kind":"inbox","payload":{}},{"kind":"conversation","payload":{"thread_id":7}}]`, string(c.Data))

	b := snap.Stacks[1]
	require.Equal(t, 3, b.Depth)
	require.Equal(t, "{", string(b.Data))
}

func TestBuilder_HierarchyIsReplacedByLaterStacks(t *testing.T) {
	snap := NewBuilder(t).Hierarchy().WithStack(TabBPath, Transportation("bus", "ferry")).Build()

	require.Len(t, snap.Stacks, len(Paths()))
	st, ok := snap.Find(TabBPath)
	require.True(t, ok)
	require.Equal(t, 2, st.Depth)
	require.Contains(t, string(st.Data), `"type":"ferry"`)

	root, ok := snap.Find(RootPath)
	require.True(t, ok)
	require.Equal(t, 0, root.Depth)
}

func TestBuilder_SaveRoundTrips(t *testing.T) {
	repo := NewTestDB(t).SnapshotRepository()
	saved := NewBuilder(t).Hierarchy().WithStack(TabCPath, Inbox()).Save(repo)

	got, err := repo.FindByGUID(context.Background(), saved.GUID)
	require.NoError(t, err)
	st, ok := got.Find(TabCPath)
	require.True(t, ok)
	require.Equal(t, 1, st.Depth)
	require.JSONEq(t, Inbox(), string(st.Data))
}
