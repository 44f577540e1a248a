// Package repository implements the relationship store and user persistence.
package repository

import (
	"context"
	"errors"
	"time"

	"amity/internal/models"

	"gorm.io/gorm"
)

// FriendRepository is the relationship store: friend requests, symmetric
// friendships and blocks. Multi-row mutations are single transactions.
type FriendRepository interface {
	CreateRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	GetRequestForReceiver(ctx context.Context, requestID, receiverID uint) (*models.FriendRequest, error)
	GetPendingRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, req *models.FriendRequest) error
	RejectRequest(ctx context.Context, req *models.FriendRequest) error
	DeleteRequest(ctx context.Context, requestID uint) error

	AreFriends(ctx context.Context, userID, otherID uint) (bool, error)
	IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error)
	Block(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error)
	Unblock(ctx context.Context, blockerID, blockedID uint) error
	BlockedIDs(ctx context.Context, blockerID uint) ([]uint, error)
	BlockerIDs(ctx context.Context, blockedID uint) ([]uint, error)

	ListFriends(ctx context.Context, userID uint, q models.ListQuery) ([]models.Friendship, int64, error)
	ListPendingRequests(ctx context.Context, receiverID uint, q models.ListQuery) ([]models.FriendRequest, int64, error)
	ListSentRequests(ctx context.Context, senderID uint, q models.ListQuery) ([]models.FriendRequest, int64, error)
	ListBlocked(ctx context.Context, blockerID uint, page models.PageParams) ([]models.BlockedUser, int64, error)
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
	tx txRunner
}

// NewFriendRepository creates a friend repository whose transactions are
// bounded by txTimeout (zero disables the bound).
func NewFriendRepository(db *gorm.DB, txTimeout time.Duration) FriendRepository {
	return &friendRepository{db: db, tx: txRunner{db: db, timeout: txTimeout}}
}

func pairBlocked(tx *gorm.DB, a, b uint) (bool, error) {
	var n int64
	err := tx.Model(&models.BlockedUser{}).
		Where("(user_id = ? AND blocked_user_id = ?) OR (user_id = ? AND blocked_user_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

func pairFriends(tx *gorm.DB, a, b uint) (bool, error) {
	var n int64
	err := tx.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&n).Error
	return n > 0, err
}

// CreateRequest inserts a PENDING request. The caller's preconditions are
// re-checked under the pair lock; a block or friendship that appeared in the
// meantime, or a concurrent duplicate insert, is a conflict.
func (r *friendRepository) CreateRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestStatusPending,
	}

	err := r.tx.run(ctx, "send_request", func(tx *gorm.DB) error {
		if err := lockPair(tx, senderID, receiverID); err != nil {
			return err
		}
		if blocked, err := pairBlocked(tx, senderID, receiverID); err != nil {
			return err
		} else if blocked {
			return errConcurrentUpdate
		}
		if friends, err := pairFriends(tx, senderID, receiverID); err != nil {
			return err
		} else if friends {
			return errConcurrentUpdate
		}
		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *friendRepository) GetRequestForReceiver(ctx context.Context, requestID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("id = ? AND receiver_id = ?", requestID, receiverID).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(models.CodeRequestNotFound, "Friend request not found.")
		}
		return nil, translateError(err)
	}
	return &req, nil
}

// GetPendingRequest returns the pending request from sender to receiver, or nil if none exists.
func (r *friendRepository) GetPendingRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, models.FriendRequestStatusPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

// AcceptRequest marks the request ACCEPTED and materializes both friendship rows.
func (r *friendRepository) AcceptRequest(ctx context.Context, req *models.FriendRequest) error {
	now := time.Now().UTC()
	err := r.tx.run(ctx, "accept", func(tx *gorm.DB) error {
		if err := lockPair(tx, req.SenderID, req.ReceiverID); err != nil {
			return err
		}

		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", req.ID, models.FriendRequestStatusPending).
			Updates(map[string]any{"status": models.FriendRequestStatusAccepted, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentUpdate
		}

		if blocked, err := pairBlocked(tx, req.SenderID, req.ReceiverID); err != nil {
			return err
		} else if blocked {
			return errConcurrentUpdate
		}

		pair := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.ReceiverID, CreatedAt: now},
			{UserID: req.ReceiverID, FriendID: req.SenderID, CreatedAt: now},
		}
		return tx.Create(&pair).Error
	})
	if err != nil {
		return err
	}
	req.Status = models.FriendRequestStatusAccepted
	req.UpdatedAt = now
	return nil
}

// RejectRequest marks a still-pending request REJECTED.
func (r *friendRepository) RejectRequest(ctx context.Context, req *models.FriendRequest) error {
	now := time.Now().UTC()
	err := r.tx.run(ctx, "reject", func(tx *gorm.DB) error {
		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", req.ID, models.FriendRequestStatusPending).
			Updates(map[string]any{"status": models.FriendRequestStatusRejected, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		return err
	}
	req.Status = models.FriendRequestStatusRejected
	req.UpdatedAt = now
	return nil
}

func (r *friendRepository) DeleteRequest(ctx context.Context, requestID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.FriendRequest{}, requestID).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID uint) (bool, error) {
	ok, err := pairFriends(r.db.WithContext(ctx), userID, otherID)
	return ok, translateError(err)
}

func (r *friendRepository) IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", blockerID, blockedID).
		Count(&n).Error; err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

// Block removes any friendship and pending requests between the pair and
// ensures the block row exists, all in one transaction. Blocking twice is a no-op.
func (r *friendRepository) Block(ctx context.Context, blockerID, blockedID uint) (*models.BlockedUser, error) {
	var block models.BlockedUser
	err := r.tx.run(ctx, "block", func(tx *gorm.DB) error {
		if err := lockPair(tx, blockerID, blockedID); err != nil {
			return err
		}
		// Pending requests go first: an accept in flight holds their row
		// lock, and the friendship delete below must observe its result.
		if err := tx.
			Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
				blockerID, blockedID, blockedID, blockerID, models.FriendRequestStatusPending).
			Delete(&models.FriendRequest{}).Error; err != nil {
			return err
		}
		if err := tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
				blockerID, blockedID, blockedID, blockerID).
			Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		return tx.
			Where(models.BlockedUser{UserID: blockerID, BlockedUserID: blockedID}).
			FirstOrCreate(&block).Error
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *friendRepository) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND blocked_user_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{}).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// BlockedIDs lists users blocked by blockerID.
func (r *friendRepository) BlockedIDs(ctx context.Context, blockerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("user_id = ?", blockerID).
		Pluck("blocked_user_id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// BlockerIDs lists users who have blocked blockedID.
func (r *friendRepository) BlockerIDs(ctx context.Context, blockedID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("blocked_user_id = ?", blockedID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// ListFriends pages through a user's friends ordered by first then last name.
func (r *friendRepository) ListFriends(ctx context.Context, userID uint, q models.ListQuery) ([]models.Friendship, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Joins("JOIN users AS friend ON friend.id = friendships.friend_id").
		Where("friendships.user_id = ?", userID)
	base = profileMatch(base, "friend", q.Search).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.Friendship
	if err := base.
		Preload("Friend").
		Order("friend.first_name ASC, friend.last_name ASC, friendships.id ASC").
		Scopes(paginate(q.Page)).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return rows, total, nil
}

// ListPendingRequests pages through incoming pending requests, newest first.
func (r *friendRepository) ListPendingRequests(ctx context.Context, receiverID uint, q models.ListQuery) ([]models.FriendRequest, int64, error) {
	return r.listRequests(ctx, "receiver_id", "sender", "Sender", receiverID, q)
}

// ListSentRequests pages through outgoing pending requests, newest first.
func (r *friendRepository) ListSentRequests(ctx context.Context, senderID uint, q models.ListQuery) ([]models.FriendRequest, int64, error) {
	return r.listRequests(ctx, "sender_id", "receiver", "Receiver", senderID, q)
}

func (r *friendRepository) listRequests(ctx context.Context, ownerColumn, counterpart, preload string, ownerID uint, q models.ListQuery) ([]models.FriendRequest, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Joins("JOIN users AS "+counterpart+" ON "+counterpart+".id = friend_requests."+counterpart+"_id").
		Where("friend_requests."+ownerColumn+" = ? AND friend_requests.status = ?", ownerID, models.FriendRequestStatusPending)
	base = profileMatch(base, counterpart, q.Search).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.FriendRequest
	if err := base.
		Preload(preload).
		Order("friend_requests.created_at DESC, friend_requests.id DESC").
		Scopes(paginate(q.Page)).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return rows, total, nil
}

// ListBlocked pages through users blocked by blockerID, most recent first.
func (r *friendRepository) ListBlocked(ctx context.Context, blockerID uint, page models.PageParams) ([]models.BlockedUser, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("user_id = ?", blockerID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.BlockedUser
	if err := base.
		Preload("BlockedUser").
		Order("created_at DESC, id DESC").
		Scopes(paginate(page)).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return rows, total, nil
}
