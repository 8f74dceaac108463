package types

import (
	"errors"
	"fmt"
)

// Mapping engine errors. Callers match them with errors.Is; the concrete
// error usually wraps one of these with column or entity detail.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrSchema           = errors.New("schema error")
	ErrValidation       = errors.New("validation failed")
	ErrUniqueConstraint = errors.New("unique constraint violated")
	ErrNotFound         = errors.New("record not found")
	ErrIntegrity        = errors.New("integrity violation")
	ErrUnknownEntity    = errors.New("unknown entity")
)

// Store and lifecycle errors.
var (
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrSheetExists     = errors.New("sheet already exists")
	ErrInvalidRange    = errors.New("invalid range")
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// UniqueConstraintError reports the column and value that collided with an
// existing record. It matches ErrUniqueConstraint under errors.Is.
type UniqueConstraintError struct {
	Column string
	Value  any
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("column %q must be unique: value %v already exists", e.Column, e.Value)
}

func (e *UniqueConstraintError) Unwrap() error {
	return ErrUniqueConstraint
}
