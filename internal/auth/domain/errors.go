package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignup      = errors.New("first name, email and a password of at least 8 characters are required")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
