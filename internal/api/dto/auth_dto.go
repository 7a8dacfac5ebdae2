package dto

import "github.com/spec-kit/timebank/internal/domain"

// LoginRequest payload for student and staff login.
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	ID       int64           `json:"id"`
	UserID   string          `json:"userId"`
	UserType domain.UserType `json:"userType"`
	Token    string          `json:"token"`
}
