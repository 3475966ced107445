package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidSeed   = errors.New("invalid seed")
)
