package models

import "time"

// User is a profile record. Username is the primary key and matches the
// verified sub claim of the owner's token.
type User struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}
