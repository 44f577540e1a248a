package database

import (
	"context"
	"testing"
	"testing/fstest"

	"amity/internal/config"
	"amity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBDriver:                 DriverPostgres,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = DriverSQLite
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: DriverPostgres, DBHost: "localhost", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: DriverSQLite})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestConnectSQLiteAppliesSchema(t *testing.T) {
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     DriverSQLite,
		DBSQLitePath: ":memory:",
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}

	alice := models.User{Email: "alice@example.com", Password: "x"}
	bob := models.User{Email: "bob@example.com", Password: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	// Only one pending request per ordered pair.
	require.NoError(t, db.Create(&models.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: models.FriendRequestStatusPending}).Error)
	assert.Error(t, db.Create(&models.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: models.FriendRequestStatusPending}).Error)

	// Historical rows do not collide with the pending one.
	require.NoError(t, db.Create(&models.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: models.FriendRequestStatusRejected}).Error)
	require.NoError(t, db.Create(&models.FriendRequest{SenderID: alice.ID, ReceiverID: bob.ID, Status: models.FriendRequestStatusRejected}).Error)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", config.Config{Env: "development", DBDriver: DriverPostgres}, true, true, false},
		{"hybrid prod", config.Config{Env: "production", DBDriver: DriverPostgres}, true, false, false},
		{"sql only", config.Config{Env: "development", DBDriver: DriverPostgres, DBSchemaMode: "sql"}, true, false, false},
		{"auto refused in prod", config.Config{Env: "production", DBDriver: DriverPostgres, DBSchemaMode: "auto"}, false, false, true},
		{"auto allowed in prod with override", config.Config{Env: "production", DBDriver: DriverPostgres, DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"sqlite always auto", config.Config{Env: "test", DBDriver: DriverSQLite}, false, true, false},
		{"sqlite rejects sql mode", config.Config{Env: "test", DBDriver: DriverSQLite, DBSchemaMode: "sql"}, false, false, true},
		{"unknown mode", config.Config{Env: "test", DBDriver: DriverPostgres, DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	embedded := GetMigrations()
	require.NotEmpty(t, embedded)
	assert.Equal(t, 1, embedded[0].Version)
	assert.Contains(t, embedded[0].UpScript, "idx_friend_requests_pending_pair")
	assert.Equal(t, "000001_init_schema", embedded[0].String())
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))

	_, err := LoadMigrations(fstest.MapFS{
		"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err, "missing down script")

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/abc_a.down.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err, "non-numeric version")

	ms, err := LoadMigrations(fstest.MapFS{
		"migrations/000002_b.up.sql":   {Data: []byte("B")},
		"migrations/000002_b.down.sql": {Data: []byte("b")},
		"migrations/000001_a.up.sql":   {Data: []byte("A")},
		"migrations/000001_a.down.sql": {Data: []byte("a")},
	})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "a", ms[0].Name)
	assert.Equal(t, "b", ms[1].DownScript)
}
