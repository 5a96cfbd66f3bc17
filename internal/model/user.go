package model

import "time"

// User represents a registered user.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is a user as returned by the username search.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// Credential is the authenticated principal of a request.
// It is produced by the auth middleware from a verified access token.
type Credential struct {
	UserID string
}
