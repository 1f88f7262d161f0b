package model

import (
	"errors"
	"fmt"
)

// ValidationError marks input the caller is responsible for fixing.
// It is returned synchronously and never corrupts engine state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
