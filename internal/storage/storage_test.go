package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pubbot/internal/storage"
	"pubbot/internal/storage/file"
	"pubbot/internal/storage/sqlite"
	"pubbot/internal/storage/stubs"
)

// newStores returns one instance of every Store implementation, each backed
// by a fresh temp location. All implementations must pass the same contract.
func newStores(t *testing.T) map[string]storage.Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := sqlite.New(filepath.Join(dir, "bot.db"))
	require.NoError(t, err)

	return map[string]storage.Store{
		"sqlite": sqliteStore,
		"file":   file.New(filepath.Join(dir, "data.json")),
		"mock":   stubs.NewMockStore(),
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s storage.Store)) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Initialize(ctx))
			defer s.Close()
			fn(t, s)
		})
	}
}

func TestStore_UnknownUser(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		whitelisted, err := s.IsWhitelisted(ctx, 42)
		require.NoError(t, err)
		require.False(t, whitelisted)

		banned, err := s.IsBanned(ctx, 42)
		require.NoError(t, err)
		require.False(t, banned)

		_, ok, err := s.LastPublish(ctx, 42)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestStore_GrantWithDuration(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		require.NoError(t, s.Grant(ctx, 12345, 30))

		whitelisted, err := s.IsWhitelisted(ctx, 12345)
		require.NoError(t, err)
		require.True(t, whitelisted)

		member, _, err := s.Member(ctx, 12345, "")
		require.NoError(t, err)
		require.True(t, member.HasGrant)
		require.NotNil(t, member.ExpiresAt)

		want := time.Now().AddDate(0, 0, 30)
		require.WithinDuration(t, want, *member.ExpiresAt, time.Minute)
	})
}

func TestStore_GrantLifetime(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		require.NoError(t, s.Grant(ctx, 7, 0))

		whitelisted, err := s.IsWhitelisted(ctx, 7)
		require.NoError(t, err)
		require.True(t, whitelisted)

		member, _, err := s.Member(ctx, 7, "")
		require.NoError(t, err)
		require.Nil(t, member.ExpiresAt)
	})
}

func TestStore_GrantExtendsFromCurrentExpiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		require.NoError(t, s.Grant(ctx, 9, 10))
		require.NoError(t, s.Grant(ctx, 9, 10))

		member, _, err := s.Member(ctx, 9, "")
		require.NoError(t, err)
		require.NotNil(t, member.ExpiresAt)

		// Second grant extends the running one instead of resetting it.
		want := time.Now().AddDate(0, 0, 20)
		require.WithinDuration(t, want, *member.ExpiresAt, time.Minute)
	})
}

func TestStore_BanRevokesMembership(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		require.NoError(t, s.Grant(ctx, 5, 30))
		require.NoError(t, s.Ban(ctx, 5))

		banned, err := s.IsBanned(ctx, 5)
		require.NoError(t, err)
		require.True(t, banned)

		whitelisted, err := s.IsWhitelisted(ctx, 5)
		require.NoError(t, err)
		require.False(t, whitelisted)

		// Unban lifts the ban but does not restore the grant.
		require.NoError(t, s.Unban(ctx, 5))

		banned, err = s.IsBanned(ctx, 5)
		require.NoError(t, err)
		require.False(t, banned)

		whitelisted, err = s.IsWhitelisted(ctx, 5)
		require.NoError(t, err)
		require.False(t, whitelisted)
	})
}

func TestStore_RecordPublish(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()
		at := time.Now().Truncate(time.Second)

		require.NoError(t, s.RecordPublish(ctx, 3, at))

		got, ok, err := s.LastPublish(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, at.Unix(), got.Unix())
	})
}

func TestStore_Template(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		tpl, err := s.Template(ctx)
		require.NoError(t, err)
		require.Empty(t, tpl)

		require.NoError(t, s.SetTemplate(ctx, "Qty:{quantity} Price:{price}"))

		tpl, err = s.Template(ctx)
		require.NoError(t, err)
		require.Equal(t, "Qty:{quantity} Price:{price}", tpl)
	})
}

func TestStore_MemberRegistration(t *testing.T) {
	forEachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		member, created, err := s.Member(ctx, 100, "alice")
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, int64(100), member.UserID)
		require.False(t, member.HasGrant)

		_, created, err = s.Member(ctx, 100, "alice")
		require.NoError(t, err)
		require.False(t, created)
	})
}
