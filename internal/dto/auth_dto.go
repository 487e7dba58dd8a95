package dto

import "time"

// SignupRequest registers a new instructor or student identity.
type SignupRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Role       string `json:"role" validate:"required,oneof=instructor student"`
	Department string `json:"department" validate:"required_if=Role instructor,max=128"`
	Title      string `json:"title" validate:"omitempty,max=128"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DemoLoginRequest selects which sentinel identity to impersonate.
type DemoLoginRequest struct {
	Role string `json:"role" validate:"required,oneof=admin instructor student"`
}

// AuthResponse carries an issued token and the identity it belongs to.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Demo      bool            `json:"demo"`
	User      ProfileResponse `json:"user"`
}
