package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/filex"
	"github.com/dmitrijs2005/gatekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves a users repository over a database/sql pool
// and applies the embedded goose migrations for its dialect.
type SQLRepositoryManager struct {
	db         *sql.DB
	dialect    goose.Dialect
	migrations fs.FS
	users      users.Repository
}

// gooseUp is a seam for testing migrations without a live database.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// NewPostgresRepositoryManager wraps an open pgx-backed pool.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:         db,
		dialect:    goose.DialectPostgres,
		migrations: mustSub(migrations.Postgres, "postgres"),
		users:      users.NewPostgresRepository(db),
	}
}

// NewSQLiteRepositoryManager wraps an open SQLite pool.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:         db,
		dialect:    goose.DialectSQLite3,
		migrations: mustSub(migrations.SQLite, "sqlite"),
		users:      users.NewSQLiteRepository(db),
	}
}

// OpenPostgres connects through the pgx stdlib driver and checks the
// connection before returning.
func OpenPostgres(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := open(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db), nil
}

// OpenSQLite opens a SQLite database, creating the directory for a file
// database first. Writes are serialized on a single connection since SQLite
// allows only one writer.
func OpenSQLite(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	if path := sqliteFilePath(dsn); path != "" {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("prepare sqlite directory: %w", err)
		}
	}

	db, err := open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return NewSQLiteRepositoryManager(db), nil
}

func open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// RunMigrations applies every pending migration.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := gooseUp(ctx, m.dialect, m.db, m.migrations); err != nil {
		return fmt.Errorf("run %s migrations: %w", m.dialect, err)
	}
	return nil
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

// sqliteFilePath returns the on-disk path named by dsn, or "" for in-memory
// databases.
func sqliteFilePath(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
