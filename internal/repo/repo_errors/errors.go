package repo_errors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrVersionConflict       = errors.New("record was modified concurrently")
	ErrInsufficientRemaining = errors.New("received quantity would exceed ordered quantity")
)
