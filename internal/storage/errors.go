package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert would violate a unique constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a row violates a check or foreign key
	// constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrGroupNotFound   = fmt.Errorf("%w: group", ErrNotFound)
	ErrExpenseNotFound = fmt.Errorf("%w: expense", ErrNotFound)
	ErrSplitNotFound   = fmt.Errorf("%w: split", ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("%w: membership", ErrNotFound)
)
