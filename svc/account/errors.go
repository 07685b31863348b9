package account

import "errors"

var (
	ErrNotFound           = errors.New("account: not found")
	ErrEmailTaken         = errors.New("account: email is already registered")
	ErrInvalidCredentials = errors.New("account: invalid email or password")
	ErrNotVerified        = errors.New("account: email is not verified")
	ErrTokenNotFound      = errors.New("account: verification token not found")
	ErrTokenExpired       = errors.New("account: verification token expired")
	ErrInvalidRole        = errors.New("account: invalid role")
)
