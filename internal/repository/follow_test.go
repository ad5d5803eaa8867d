package repository

import (
	"context"
	"testing"

	"triplog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := models.User{Nickname: "alice", Email: "alice@example.com"}
	bob := models.User{Nickname: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	t.Run("create and exists", func(t *testing.T) {
		exists, err := repo.ExistsByFollowerAndFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))

		exists, err = repo.ExistsByFollowerAndFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		// Direction matters.
		exists, err = repo.ExistsByFollowerAndFollowing(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("lists and counts", func(t *testing.T) {
		followers, err := repo.ListFollowers(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, "alice", followers[0].Follower.Nickname)

		following, err := repo.ListFollowing(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, "bob", following[0].Following.Nickname)

		count, err := repo.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("delete reports existence", func(t *testing.T) {
		removed, err := repo.Delete(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
