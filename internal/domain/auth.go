package domain

import "time"

// UserType differentiates student vs staff accounts and tokens.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeStaff   UserType = "staff"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeStudent || t == UserTypeStaff
}

// Token is an opaque bearer session with a sliding expiry.
type Token struct {
	ID        int64
	Token     string
	UserID    string
	UserType  UserType
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
