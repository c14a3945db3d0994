// Package models contains the persistence-level records used by the server.
package models

import "time"

// User is a registered account as stored in the users table.
// PasswordHash is a bcrypt digest and must never reach a client; handlers
// return the Profile DTO from the services package instead.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
