package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository is the single-file backend for small deployments.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, created_at`

	var created dbx.Timestamp
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, dbx.NullString(user.FirstName), dbx.NullString(user.LastName)).
		Scan(&user.ID, &created)

	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, sqliteConflict(err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = created.Time
	return user, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, first_name, last_name, created_at FROM users
		 WHERE email = ?`

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// sqliteUniqueColumns maps the column list SQLite names in a UNIQUE failure
// to the constraint it belongs to.
var sqliteUniqueColumns = map[string]string{
	"users.email": emailUniqueConstraint,
}

// sqliteConflict reads the constraint from a message such as
// "UNIQUE constraint failed: users.email (2067)".
func sqliteConflict(err error) common.ConflictError {
	const marker = "UNIQUE constraint failed: "

	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return common.ConflictError{}
	}
	cols := msg[i+len(marker):]
	if j := strings.Index(cols, " ("); j >= 0 {
		cols = cols[:j]
	}
	return conflictOn(sqliteUniqueColumns[strings.TrimSpace(cols)])
}

// isSQLiteUniqueViolation accepts both the extended code and the primary
// SQLITE_CONSTRAINT code with a UNIQUE message.
func isSQLiteUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	code := sqErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), "UNIQUE")
}
