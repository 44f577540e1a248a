package database

import (
	"context"
	"testing"
	"testing/fstest"

	"amity/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testMigrations(t *testing.T, extra fstest.MapFS) []Migration {
	t.Helper()
	fsys := fstest.MapFS{
		"migrations/000001_contacts.up.sql":        {Data: []byte("CREATE TABLE contacts (id INTEGER PRIMARY KEY, email TEXT NOT NULL);")},
		"migrations/000001_contacts.down.sql":      {Data: []byte("DROP TABLE contacts;")},
		"migrations/000002_contact_email.up.sql":   {Data: []byte("CREATE UNIQUE INDEX idx_contacts_email ON contacts (email);")},
		"migrations/000002_contact_email.down.sql": {Data: []byte("DROP INDEX idx_contacts_email;")},
	}
	for name, file := range extra {
		fsys[name] = file
	}
	ms, err := LoadMigrations(fsys)
	require.NoError(t, err)
	return ms
}

func TestMigratorUp(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	m := NewMigrator(db, testMigrations(t, nil))

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.False(t, db.Migrator().HasTable(&SchemaVersion{}), "reading status must not create the ledger")

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("contacts"))
	assert.True(t, db.Migrator().HasIndex("contacts", "idx_contacts_email"))

	var rows []SchemaVersion
	require.NoError(t, db.Order("version").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "contact_email", rows[1].Name)
	assert.False(t, rows[1].AppliedAt.IsZero())

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")
}

func TestMigratorUp_FailedScriptIsRolledBack(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	m := NewMigrator(db, testMigrations(t, fstest.MapFS{
		"migrations/000003_broken.up.sql":   {Data: []byte("CREATE TABLE half_done (id INTEGER); CREATE TABLE broken (")},
		"migrations/000003_broken.down.sql": {Data: []byte("DROP TABLE half_done;")},
	}))

	n, err := m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003_broken")
	assert.Equal(t, 2, n)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.False(t, db.Migrator().HasTable("half_done"))
}

func TestMigratorUp_RefusesUnknownVersions(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	m := NewMigrator(db, testMigrations(t, nil))
	_, err := m.Up(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Create(&SchemaVersion{Version: 9, Name: "from_a_newer_build"}).Error)

	_, err = m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000009")
}

func TestMigratorDown(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	m := NewMigrator(db, testMigrations(t, nil))

	err := m.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been applied")

	_, err = m.Up(ctx)
	require.NoError(t, err)

	err = m.Down(ctx, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = m.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the latest")
	assert.True(t, db.Migrator().HasTable("contacts"))

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasIndex("contacts", "idx_contacts_email"))
	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	require.NoError(t, m.Down(ctx, 1))
	assert.False(t, db.Migrator().HasTable("contacts"))

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 12, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007, 000012")
}

func TestGetSchemaStatus(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)

	status, err := GetSchemaStatus(ctx, db, &config.Config{Env: "production", DBDriver: DriverPostgres})
	require.NoError(t, err)
	assert.True(t, status.WillRunSQL)
	assert.False(t, status.WillRunAutoMigrate)
	assert.Empty(t, status.AppliedVersions)
	assert.Equal(t, GetMigrations(), status.PendingMigrations)

	status, err = GetSchemaStatus(ctx, db, &config.Config{Env: "test", DBDriver: DriverSQLite})
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.Nil(t, status.PendingMigrations)
}
