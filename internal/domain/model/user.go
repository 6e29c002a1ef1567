package model

import (
	"time"
)

type User struct {
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Not exposed
	CreatedAt      time.Time `json:"created_at"`
}

// CurrentUser is the sanitized identity carried by a session. It never
// holds the password hash.
type CurrentUser struct {
	Username string `json:"username"`
}
