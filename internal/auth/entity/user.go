package entity

import "time"

// User represents an account row in the `users` table.
type User struct {
	ID           int64     `db:"id"`
	Username     *string   `db:"username"`
	Email        *string   `db:"email"`
	PasswordHash *string   `db:"password_hash"`
	PasswordAlgo *string   `db:"password_algo"`
	Status       string    `db:"status"` // active / disabled
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Principal is what handlers learn about the caller from a token.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}
