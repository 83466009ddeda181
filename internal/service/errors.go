package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks errors caused by invalid caller input
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
