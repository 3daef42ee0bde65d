package store

import "errors"

// Sentinel errors. The service layer translates these into coded domain
// errors; the store itself stays agnostic of HTTP concerns.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrInvalidPage   = errors.New("page number must be greater than or equal to 1")
)
