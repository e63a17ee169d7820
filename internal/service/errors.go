package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every "referenced entity does not exist" error
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrLessonNotFound = fmt.Errorf("lesson %w", ErrNotFound)

	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
