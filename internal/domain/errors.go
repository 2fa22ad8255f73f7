package domain

import "errors"

var (
	// ErrInvalidUsername rejects an empty, overlong or ill-formed display name.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidMessage rejects blank or overlong message content.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrDuplicateName rejects a join for a name that is already online.
	ErrDuplicateName = errors.New("username already taken")

	// ErrUserNotFound means the connection has no registered user.
	ErrUserNotFound = errors.New("user not found")
)
