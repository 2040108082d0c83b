package domain

import "time"

// User is the account record. Email doubles as the login identifier and is
// the subject claim of every token issued to the account.
type User struct {
	ID           string
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string // argon2id PHC encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the name embedded in token claims.
func (u User) DisplayName() string {
	switch {
	case u.Firstname == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Firstname
	default:
		return u.Firstname + " " + u.Lastname
	}
}
