package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrDuplicatePhone     = errors.New("phone already registered")
	ErrClassExists        = errors.New("class already exists")
	ErrClassMismatch      = errors.New("class does not belong to college and major")
	ErrExamClosed         = errors.New("exam is not open for answers")
)
