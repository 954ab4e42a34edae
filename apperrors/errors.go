package apperrors

import "errors"

var (
	ErrValidation         = errors.New("all fields are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized request")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrUserExists         = errors.New("user with email or username already exists")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrUploadFailed       = errors.New("file upload failed")
)
