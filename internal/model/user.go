// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either through POST /register (username + password)
// or through the GitHub OAuth flow. For OAuth accounts GitHubID is set and
// PasswordHash stays empty, which means password login can never succeed
// for them; bcrypt rejects an empty hash.
//
// PasswordHash is tagged `json:"-"` so it can never leak into a response,
// regardless of which handler serializes the struct.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"` // 0 unless the account was created via GitHub OAuth
	CreatedAt    time.Time `json:"created_at"`
}
