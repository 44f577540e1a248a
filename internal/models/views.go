package models

import "time"

// FriendEntry is one row of a friend list with the counterpart's profile attached.
type FriendEntry struct {
	ID        uint        `json:"id"`
	Friend    UserProfile `json:"friend"`
	CreatedAt time.Time   `json:"created_at"`
}

// BlockedEntry is one row of a blocked-user list.
type BlockedEntry struct {
	ID          uint        `json:"id"`
	BlockedUser UserProfile `json:"blocked_user"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RequestEntry is a friend request with the counterpart's profile attached.
// Counterpart is the sender for incoming lists and the receiver for outgoing lists.
type RequestEntry struct {
	FriendRequest
	Counterpart UserProfile `json:"counterpart"`
}

// NewFriendEntry projects a preloaded friendship row.
func NewFriendEntry(f Friendship) FriendEntry {
	return FriendEntry{ID: f.ID, Friend: f.Friend.Profile(), CreatedAt: f.CreatedAt}
}

// NewBlockedEntry projects a preloaded block row.
func NewBlockedEntry(b BlockedUser) BlockedEntry {
	return BlockedEntry{ID: b.ID, BlockedUser: b.BlockedUser.Profile(), CreatedAt: b.CreatedAt}
}

// RelationshipStatus is the read-side view of a pair of users.
type RelationshipStatus struct {
	UserID    uint              `json:"user_id"`
	Status    RelationshipState `json:"status"`
	RequestID *uint             `json:"request_id,omitempty"`
}

// RespondOutcome names what RespondToRequest did.
type RespondOutcome string

const (
	OutcomeAccepted       RespondOutcome = "accepted"
	OutcomeRejected       RespondOutcome = "rejected"
	OutcomeAlreadyFriends RespondOutcome = "already_friends"
)

// RespondResult is returned by a successful RespondToRequest, including the
// already-friends cleanup path where Request has been deleted.
type RespondResult struct {
	Outcome RespondOutcome `json:"outcome"`
	Detail  string         `json:"detail"`
	Request *FriendRequest `json:"request,omitempty"`
}
