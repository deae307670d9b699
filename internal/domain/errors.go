package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")

	// ErrInvalidBloodGroup is reported for unrecognized blood group input.
	ErrInvalidBloodGroup = fmt.Errorf("%w: invalid blood group", ErrValidation)
)
