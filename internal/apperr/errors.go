// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrWrongMode     = errors.New("wrong session mode")
)
