package domain

import "time"

// Account is a student or staff login.
type Account struct {
	ID           int64
	UserID       string
	PasswordHash string
	Type         UserType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
