package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	CooldownKeyPrefix = "friend_request_cooldown_%d_%d"
)

const (
	UserTTL = 5 * time.Minute
)

// UserKey is the cache key of a user's public profile.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// CooldownKey is the cache key marking that receiverID rejected senderID.
// The key is directional: a rejection of A by B never affects B sending to A.
func CooldownKey(senderID, receiverID uint) string {
	return fmt.Sprintf(CooldownKeyPrefix, senderID, receiverID)
}
