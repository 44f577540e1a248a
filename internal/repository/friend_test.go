package repository

import (
	"context"
	"testing"
	"time"

	"amity/internal/models"
	"amity/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countFriendships(t *testing.T, db *gorm.DB, a, b uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Count(&n).Error)
	return n
}

func TestFriendRepository_RequestLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db, 5*time.Second)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "Archer")
	bob := testutil.CreateUser(t, db, "Bob", "Baker")

	req, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotZero(t, req.ID)
	assert.Equal(t, models.FriendRequestStatusPending, req.Status)

	t.Run("duplicate pending insert is a conflict", func(t *testing.T) {
		_, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("lookups", func(t *testing.T) {
		pending, err := repo.GetPendingRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, req.ID, pending.ID)

		reverse, err := repo.GetPendingRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, reverse)

		_, err = repo.GetRequestForReceiver(ctx, req.ID, alice.ID)
		assert.ErrorIs(t, err, &models.AppError{Code: models.CodeRequestNotFound})

		got, err := repo.GetRequestForReceiver(ctx, req.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.SenderID)
	})

	t.Run("accept materializes both rows", func(t *testing.T) {
		require.NoError(t, repo.AcceptRequest(ctx, req))
		assert.Equal(t, models.FriendRequestStatusAccepted, req.Status)
		assert.EqualValues(t, 2, countFriendships(t, db, alice.ID, bob.ID))

		ab, err := repo.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		ba, err := repo.AreFriends(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ab)
		assert.True(t, ba)

		var stored models.FriendRequest
		require.NoError(t, db.First(&stored, req.ID).Error)
		assert.Equal(t, models.FriendRequestStatusAccepted, stored.Status)
	})

	t.Run("accepting twice is a conflict", func(t *testing.T) {
		again := *req
		again.Status = models.FriendRequestStatusPending
		err := repo.AcceptRequest(ctx, &again)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
		assert.EqualValues(t, 2, countFriendships(t, db, alice.ID, bob.ID))
	})

	t.Run("send between friends is a conflict", func(t *testing.T) {
		_, err := repo.CreateRequest(ctx, bob.ID, alice.ID)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})
}

func TestFriendRepository_Reject(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db, 5*time.Second)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "Archer")
	bob := testutil.CreateUser(t, db, "Bob", "Baker")

	req, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, repo.RejectRequest(ctx, req))
	assert.Equal(t, models.FriendRequestStatusRejected, req.Status)

	again := *req
	assert.Equal(t, models.KindConflict, models.KindOf(repo.RejectRequest(ctx, &again)))

	// A rejected request frees the pending slot for the pair.
	next, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, next.ID)

	require.NoError(t, repo.DeleteRequest(ctx, next.ID))
	pending, err := repo.GetPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFriendRepository_Block(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db, 5*time.Second)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "Archer")
	bob := testutil.CreateUser(t, db, "Bob", "Baker")
	carol := testutil.CreateUser(t, db, "Carol", "Cooper")

	req, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, repo.AcceptRequest(ctx, req))
	_, err = repo.CreateRequest(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	toCarol, err := repo.CreateRequest(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	t.Run("removes friendship pair", func(t *testing.T) {
		block, err := repo.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, block.UserID)
		assert.Equal(t, bob.ID, block.BlockedUserID)
		assert.Zero(t, countFriendships(t, db, alice.ID, bob.ID))

		// The accepted request is history and survives.
		var stored models.FriendRequest
		require.NoError(t, db.First(&stored, req.ID).Error)
		assert.Equal(t, models.FriendRequestStatusAccepted, stored.Status)
	})

	t.Run("is idempotent", func(t *testing.T) {
		first, err := repo.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		second, err := repo.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		var n int64
		require.NoError(t, db.Model(&models.BlockedUser{}).Where("user_id = ? AND blocked_user_id = ?", alice.ID, bob.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("removes pending requests in both directions", func(t *testing.T) {
		_, err := repo.Block(ctx, carol.ID, alice.ID)
		require.NoError(t, err)

		for _, pair := range [][2]uint{{carol.ID, alice.ID}, {alice.ID, carol.ID}} {
			pending, err := repo.GetPendingRequest(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.Nil(t, pending)
		}

		// An accept that lost the race finds its request gone.
		assert.Equal(t, models.KindConflict, models.KindOf(repo.AcceptRequest(ctx, toCarol)))
	})

	t.Run("predicates and unblock", func(t *testing.T) {
		blocked, err := repo.IsBlocked(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, blocked)
		reverse, err := repo.IsBlocked(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, reverse)

		ids, err := repo.BlockedIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{bob.ID}, ids)
		blockers, err := repo.BlockerIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{carol.ID}, blockers)

		_, err = repo.CreateRequest(ctx, bob.ID, alice.ID)
		assert.Equal(t, models.KindConflict, models.KindOf(err))

		require.NoError(t, repo.Unblock(ctx, alice.ID, bob.ID))
		require.NoError(t, repo.Unblock(ctx, alice.ID, bob.ID))
		blocked, err = repo.IsBlocked(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, blocked)

		// Unblocking does not restore the friendship.
		friends, err := repo.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, friends)
	})
}

func TestFriendRepository_Listings(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFriendRepository(db, 5*time.Second)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "Mia", "Moss")
	zed := testutil.CreateUser(t, db, "Zed", "Young")
	amy := testutil.CreateUser(t, db, "Amy", "Zhang")
	ann := testutil.CreateUser(t, db, "Amy", "Adams")
	pct := testutil.CreateUser(t, db, "Per%cent", "Literal")

	for _, u := range []*models.User{zed, amy, ann, pct} {
		req, err := repo.CreateRequest(ctx, u.ID, me.ID)
		require.NoError(t, err)
		require.NoError(t, repo.AcceptRequest(ctx, req))
	}

	t.Run("friends sorted by first then last name", func(t *testing.T) {
		rows, total, err := repo.ListFriends(ctx, me.ID, models.ListQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, rows, 4)
		assert.Equal(t, ann.ID, rows[0].FriendID)
		assert.Equal(t, amy.ID, rows[1].FriendID)
		assert.Equal(t, "Adams", rows[0].Friend.LastName, "counterpart profile is attached")
	})

	t.Run("friends filtered by substring", func(t *testing.T) {
		rows, total, err := repo.ListFriends(ctx, me.ID, models.ListQuery{Search: "AMY"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, rows, 2)

		rows, total, err = repo.ListFriends(ctx, me.ID, models.ListQuery{Search: "zhang"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, amy.ID, rows[0].FriendID)

		// Wildcards in the search term are literal.
		rows, total, err = repo.ListFriends(ctx, me.ID, models.ListQuery{Search: "%"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, pct.ID, rows[0].FriendID)
	})

	t.Run("friends paged", func(t *testing.T) {
		rows, total, err := repo.ListFriends(ctx, me.ID, models.ListQuery{Page: models.PageParams{Page: 2, PageSize: 3}})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, rows, 1)
		assert.Equal(t, zed.ID, rows[0].FriendID)
	})

	t.Run("pending requests newest first", func(t *testing.T) {
		other := testutil.CreateUser(t, db, "Olga", "Ode")
		third := testutil.CreateUser(t, db, "Theo", "Third")
		first, err := repo.CreateRequest(ctx, other.ID, me.ID)
		require.NoError(t, err)
		second, err := repo.CreateRequest(ctx, third.ID, me.ID)
		require.NoError(t, err)
		require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)

		rows, total, err := repo.ListPendingRequests(ctx, me.ID, models.ListQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, rows, 2)
		assert.Equal(t, second.ID, rows[0].ID)
		assert.Equal(t, "Theo", rows[0].Sender.FirstName)

		rows, _, err = repo.ListPendingRequests(ctx, me.ID, models.ListQuery{Search: "olga"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, first.ID, rows[0].ID)

		sent, total, err := repo.ListSentRequests(ctx, other.ID, models.ListQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, me.ID, sent[0].Receiver.ID)
	})

	t.Run("blocked list", func(t *testing.T) {
		_, err := repo.Block(ctx, me.ID, zed.ID)
		require.NoError(t, err)

		rows, total, err := repo.ListBlocked(ctx, me.ID, models.PageParams{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Zed", rows[0].BlockedUser.FirstName)
	})
}
