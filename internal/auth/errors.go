package auth

import "errors"

var (
	// ErrNoSuchUser and ErrWrongPassword stay inside the package: both
	// collapse to ErrInvalidCredentials at the service boundary so the API
	// never reveals whether an email exists.
	ErrNoSuchUser    = errors.New("no such user")
	ErrWrongPassword = errors.New("wrong password")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("too many login attempts")
	ErrInvalidRole        = errors.New("invalid role specified")
	ErrWeakPassword       = errors.New("password does not meet complexity requirements")
)
