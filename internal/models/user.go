package models

import "github.com/google/uuid"

// User is a registered account backing a human player.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}
