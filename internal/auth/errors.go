package auth

import "errors"

var (
	// ErrEmailTaken is returned by Register when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnknownEmail is returned by Login when no account has the email.
	ErrUnknownEmail = errors.New("no account for email")

	// ErrInvalidCredentials is returned by Login when the password does not match.
	ErrInvalidCredentials = errors.New("incorrect password")

	// ErrPasswordTooLong is returned by Hash for passwords bcrypt cannot accept.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
