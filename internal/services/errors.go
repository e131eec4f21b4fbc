package services

import "errors"

// Ожидаемые исходы операций. Граница (HTTP) сама решает, во что их превратить;
// любые другие ошибки означают сбой хранилища.
var (
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoActiveSession    = errors.New("no active session")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
