// Package users persists identities. Every implementation enforces email
// uniqueness itself and reports a violation as common.ConflictError so the
// caller can tell a duplicate apart from any other failure.
package users

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

const emailUniqueConstraint = "users_email_key"

// uniqueConstraints maps each unique constraint on users to the field it
// guards.
var uniqueConstraints = map[string]string{
	emailUniqueConstraint: "email",
}

// conflictOn reports a violation of constraint. An unknown constraint leaves
// Field empty rather than guessing.
func conflictOn(constraint string) common.ConflictError {
	return common.ConflictError{Field: uniqueConstraints[constraint], Constraint: constraint}
}

// Repository is the persistence collaborator used by the user service.
type Repository interface {
	// GetUserByEmail does an exact, case-sensitive lookup. A missing user is
	// common.ErrorNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts user and fills in ID and CreatedAt. A duplicate email is
	// common.ConflictError.
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
