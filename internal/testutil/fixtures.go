// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"amity/internal/config"
	"amity/internal/database"
	"amity/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestJWTSecret satisfies config validation in every environment.
const TestJWTSecret = "test-secret-key-12345678901234567890123456789012"

var userSeq atomic.Uint64

// NewConfig returns a config for an isolated in-memory SQLite database.
func NewConfig() *config.Config {
	return &config.Config{
		Port:                         "8000",
		Env:                          "test",
		JWTSecret:                    TestJWTSecret,
		JWTTTLHours:                  1,
		DBDriver:                     database.DriverSQLite,
		DBSQLitePath:                 ":memory:",
		DBTxTimeoutSeconds:           5,
		DBSchemaMode:                 database.SchemaModeAuto,
		FriendRequestCooldownSeconds: 86400,
	}
}

// NewDB opens a fresh in-memory SQLite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Connect(NewConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and returns it with a connected client.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// CreateUser inserts an active user with a unique email derived from name.
func CreateUser(t testing.TB, db *gorm.DB, firstName, lastName string) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Email:     fmt.Sprintf("%s.%s.%d@example.com", firstName, lastName, n),
		FirstName: firstName,
		LastName:  lastName,
		Password:  "not-a-real-hash",
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
