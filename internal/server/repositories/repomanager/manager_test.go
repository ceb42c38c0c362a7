package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sqliteSeq atomic.Int64

func memDSN() string {
	return fmt.Sprintf("file:repomanager_%d?mode=memory&cache=shared", sqliteSeq.Add(1))
}

func TestNew_Memory(t *testing.T) {
	m, err := New(context.Background(), &config.Config{DatabaseDriver: config.DriverMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.RunMigrations(context.Background()))
	assert.IsType(t, &users.MemoryRepository{}, m.Users())
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{DatabaseDriver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database driver "oracle"`)
}

func TestNew_SQLiteMigratesAndServesUsers(t *testing.T) {
	ctx := context.Background()

	m, err := New(ctx, &config.Config{DatabaseDriver: config.DriverSQLite, DatabaseDSN: memDSN()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.RunMigrations(ctx))
	// second run is a no-op
	require.NoError(t, m.RunMigrations(ctx))

	repo := m.Users()
	assert.IsType(t, &users.SQLiteRepository{}, repo)

	created, err := repo.Create(ctx, &models.User{Email: "a@b.com", PasswordHash: "h"})
	require.NoError(t, err)

	got, err := repo.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestPostgresManager_UsersAndClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	m := NewPostgresRepositoryManager(db)
	assert.IsType(t, &users.PostgresRepository{}, m.Users())
	assert.Equal(t, goose.DialectPostgres, m.dialect)

	mock.ExpectClose()
	require.NoError(t, m.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresManager_RunMigrationsUsesPostgresFiles(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var gotDialect goose.Dialect
	var gotFiles []string
	orig := gooseUp
	gooseUp = func(_ context.Context, dialect goose.Dialect, _ *sql.DB, fsys fs.FS) error {
		gotDialect = dialect
		gotFiles, _ = fs.Glob(fsys, "*.sql")
		return nil
	}
	t.Cleanup(func() { gooseUp = orig })

	require.NoError(t, NewPostgresRepositoryManager(db).RunMigrations(context.Background()))
	assert.Equal(t, goose.DialectPostgres, gotDialect)
	assert.Contains(t, gotFiles, "00001_create_users.sql")
}

func TestRunMigrations_WrapsError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	boom := errors.New("boom")
	orig := gooseUp
	gooseUp = func(context.Context, goose.Dialect, *sql.DB, fs.FS) error { return boom }
	t.Cleanup(func() { gooseUp = orig })

	err = NewPostgresRepositoryManager(db).RunMigrations(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "run postgres migrations")
}

func TestSQLiteFilePath(t *testing.T) {
	tests := map[string]string{
		"gatekeeper.db": "gatekeeper.db",
		"file:data/gatekeeper.db?_pragma=foreign_keys(1)": "data/gatekeeper.db",
		":memory:":                            "",
		"file::memory:?cache=shared":          "",
		"file:users?mode=memory&cache=shared": "",
		"":                                    "",
	}
	for dsn, want := range tests {
		assert.Equal(t, want, sqliteFilePath(dsn), dsn)
	}
}

func TestOpenSQLite_CreatesDirectoryForFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gatekeeper.db")

	m, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.RunMigrations(context.Background()))
	_, err = os.Stat(path)
	require.NoError(t, err)
}
