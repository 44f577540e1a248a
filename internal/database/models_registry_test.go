package database

import (
	"testing"

	"amity/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesRelationshipTables(t *testing.T) {
	var haveRequest, haveFriendship, haveBlock bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.FriendRequest:
			haveRequest = true
		case *models.Friendship:
			haveFriendship = true
		case *models.BlockedUser:
			haveBlock = true
		}
	}
	require.True(t, haveRequest, "PersistentModels should include FriendRequest")
	require.True(t, haveFriendship, "PersistentModels should include Friendship")
	require.True(t, haveBlock, "PersistentModels should include BlockedUser")
}
