package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password_hash, first_name, last_name)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	var created dbx.Timestamp
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, dbx.NullString(user.FirstName), dbx.NullString(user.LastName)).
		Scan(&user.ID, &created)

	if err != nil {
		if ce, ok := pgConflict(err); ok {
			return nil, ce
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = created.Time
	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, first_name, last_name, created_at FROM users
		 WHERE email = $1
		 `

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func pgConflict(err error) (common.ConflictError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return common.ConflictError{}, false
	}
	return conflictOn(pgErr.ConstraintName), true
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user      models.User
		firstName sql.NullString
		lastName  sql.NullString
		created   dbx.Timestamp
	)

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &firstName, &lastName, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.FirstName = dbx.StringPtr(firstName)
	user.LastName = dbx.StringPtr(lastName)
	user.CreatedAt = created.Time
	return &user, nil
}
