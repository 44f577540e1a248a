package models

import (
	"time"
)

// FriendRequestStatus represents the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	// FriendRequestStatusPending indicates a request awaiting the receiver's answer.
	FriendRequestStatusPending FriendRequestStatus = "PENDING"
	// FriendRequestStatusAccepted indicates the receiver accepted and a friendship was materialized.
	FriendRequestStatusAccepted FriendRequestStatus = "ACCEPTED"
	// FriendRequestStatusRejected indicates the receiver declined the request.
	FriendRequestStatusRejected FriendRequestStatus = "REJECTED"
)

// FriendRequest is a one-directional proposal from Sender to Receiver.
// At most one PENDING row may exist per ordered (sender, receiver) pair.
type FriendRequest struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	SenderID   uint                `gorm:"not null;index:idx_friend_requests_sender;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'PENDING'" json:"sender"`
	ReceiverID uint                `gorm:"not null;index:idx_friend_requests_receiver;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'PENDING'" json:"receiver"`
	Status     FriendRequestStatus `gorm:"type:varchar(10);not null;default:'PENDING';index" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	Sender   User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// IsPending reports whether the request still awaits an answer.
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestStatusPending
}

// Friendship is one directed half of a symmetric friendship.
// Rows are always written and removed in (A,B)/(B,A) pairs.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"-"`
	FriendID  uint      `gorm:"not null;uniqueIndex:idx_friendships_pair;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Friend User `gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BlockedUser records that UserID suppresses BlockedUserID. Unique per ordered pair.
type BlockedUser struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_blocked_users_pair" json:"-"`
	BlockedUserID uint      `gorm:"not null;uniqueIndex:idx_blocked_users_pair;index" json:"-"`
	CreatedAt     time.Time `json:"created_at"`

	User        User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BlockedUser User `gorm:"foreignKey:BlockedUserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (BlockedUser) TableName() string {
	return "blocked_users"
}

// RelationshipState describes how the caller relates to another user.
type RelationshipState string

const (
	RelationshipNone            RelationshipState = "none"
	RelationshipPendingSent     RelationshipState = "pending_sent"
	RelationshipPendingReceived RelationshipState = "pending_received"
	RelationshipFriends         RelationshipState = "friends"
	RelationshipBlocked         RelationshipState = "blocked"
	RelationshipBlockedBy       RelationshipState = "blocked_by"
)
