package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailAlreadyExists  = errors.New("user already exists with this email")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)
