package models

import "time"

// User is a stored identity keyed by a unique, case-sensitive email.
// FirstName and LastName are nil when not supplied and stored as NULL.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
}
