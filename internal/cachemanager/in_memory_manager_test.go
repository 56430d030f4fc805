package cachemanager

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/waypoint/internal/log"
)

type snapshotKey string

type cachedStack struct {
	Path  string
	Depth int
}

func newTestCache() *InMemoryCacheManager[snapshotKey, cachedStack] {
	return NewInMemoryCacheManager[snapshotKey, cachedStack]("snapshot-cache", DefaultExpiration, DefaultCleanupInterval).
		WithLogger(log.New(&bytes.Buffer{}))
}

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	cache := newTestCache()
	want := cachedStack{Path: "RootRouter/TabsRouter", Depth: 2}
	cache.Set(context.Background(), "guid-1", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "guid-1")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := newTestCache()

	got, ok := cache.Get(context.Background(), "guid-1")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_WrongTypeIsMissAndLogged(t *testing.T) {
	var buf bytes.Buffer
	cache := NewInMemoryCacheManager[snapshotKey, cachedStack]("snapshot-cache", DefaultExpiration, DefaultCleanupInterval).
		WithLogger(log.New(&buf))

	cache.cache.Set("guid-1", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "guid-1")
	require.False(t, ok)
	require.Zero(t, got)
	require.Contains(t, buf.String(), "[snapshot-cache] wrong type assertion when getting value")
}

func TestInMemoryCacheManager_GetMultiple(t *testing.T) {
	tests := []struct {
		name   string
		seed   map[string]any
		keys   []snapshotKey
		want   map[snapshotKey]cachedStack
		wantOK bool
	}{
		{
			name: "no keys",
			keys: nil,
		},
		{
			name: "all missing",
			keys: []snapshotKey{"a", "b"},
		},
		{
			name:   "partial hit",
			seed:   map[string]any{"a": cachedStack{Path: "A"}},
			keys:   []snapshotKey{"a", "b"},
			want:   map[snapshotKey]cachedStack{"a": {Path: "A"}},
			wantOK: true,
		},
		{
			name:   "wrong type skipped",
			seed:   map[string]any{"a": cachedStack{Path: "A"}, "b": "not a stack"},
			keys:   []snapshotKey{"a", "b"},
			want:   map[snapshotKey]cachedStack{"a": {Path: "A"}},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache()
			for k, v := range tt.seed {
				cache.cache.Set(k, v, DefaultExpiration)
			}

			got, ok := cache.GetMultiple(context.Background(), tt.keys)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newTestCache()

	_, ok := cache.GetWithRefresh(context.Background(), "guid-1", time.Hour)
	require.False(t, ok)

	cache.Set(context.Background(), "guid-1", cachedStack{Path: "A"}, 50*time.Millisecond)
	got, ok := cache.GetWithRefresh(context.Background(), "guid-1", time.Hour)
	require.True(t, ok)
	require.Equal(t, "A", got.Path)

	_, expiry, found := cache.cache.GetWithExpiration("guid-1")
	require.True(t, found)
	require.Greater(t, time.Until(expiry), time.Minute, "ttl extended")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	require.NoError(t, cache.Delete(ctx))

	cache.Set(ctx, "a", cachedStack{Path: "A"}, DefaultExpiration)
	cache.Set(ctx, "b", cachedStack{Path: "B"}, DefaultExpiration)

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	require.True(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
}

func TestInMemoryCacheManager_Expires(t *testing.T) {
	cache := newTestCache()
	cache.Set(context.Background(), "a", cachedStack{Path: "A"}, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
