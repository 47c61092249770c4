// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// User is the author of posts and media. Authentication lives outside this
// service; only the fields the foreign keys and seed data need are kept.
type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"user_name"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	CreatedOn    time.Time `json:"created_on"`
}
