package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"amity/internal/cache"
	"amity/internal/models"
	"amity/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db, cache.NewAside(nil))
	ctx := context.Background()

	u := &models.User{Email: "  Grace@Example.COM ", FirstName: "Grace", LastName: "Hopper", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "grace@example.com", u.Email)
	assert.False(t, u.DateJoined.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Email: "grace@example.com", Password: "hash"})
		require.Error(t, err)
		assert.Equal(t, models.KindBadRequest, models.KindOf(err))
	})

	t.Run("by email is case-insensitive", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "GRACE@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)

		missing, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hopper", got.LastName)

		_, err = repo.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, &models.AppError{Code: models.CodeUserNotFound})

		exists, err := repo.Exists(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = repo.Exists(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("last login", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.UpdateLastLogin(ctx, u.ID, at))
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin)
		assert.True(t, at.Equal(got.LastLogin.UTC()))
	})
}

func TestUserRepository_GetProfileCached(t *testing.T) {
	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	repo := NewUserRepository(db, cache.NewAside(rdb))
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "Ada", "Lovelace")

	p, err := repo.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))

	// Served from cache even after the row changes.
	require.NoError(t, db.Model(u).UpdateColumn("first_name", "Augusta").Error)
	p, err = repo.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)

	_, err = repo.GetProfile(ctx, 9999)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestUserRepository_Search(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db, cache.NewAside(nil))
	ctx := context.Background()

	alan := testutil.CreateUser(t, db, "Alan", "Turing")
	alana := testutil.CreateUser(t, db, "Alana", "Smith")
	testutil.CreateUser(t, db, "Barbara", "Liskov")

	users, total, err := repo.Search(ctx, UserSearch{Query: "alan"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, alan.ID, users[0].ID)

	users, total, err = repo.Search(ctx, UserSearch{Query: "alan", ExcludeIDs: []uint{alan.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, alana.ID, users[0].ID)

	// Full-text ranking only applies to PostgreSQL; SQLite falls back to LIKE.
	users, _, err = repo.Search(ctx, UserSearch{Query: "liskov", FullText: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Barbara", users[0].FirstName)
}

func TestUserRepository_DriverErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unique violation on create", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db, nil)
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err := repo.Create(ctx, &models.User{Email: "dup@example.com", Password: "hash"})
		assert.ErrorIs(t, err, &models.AppError{Code: models.CodeValidation})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection failure is an opaque server error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db, nil)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
			WillReturnError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		_, err := repo.Exists(ctx, 1)
		appErr := models.AsAppError(err)
		assert.Equal(t, models.KindServerError, appErr.Kind)
		assert.NotContains(t, appErr.Message, "10.0.0.5")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
