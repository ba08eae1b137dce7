package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount  = errors.New("monto inválido")
	ErrInvalidTerm    = errors.New("plazo inválido")
	ErrInvalidRate    = errors.New("tasa inválida")
	ErrMalformedInput = errors.New("entrada mal formada")
)

// FieldError reports which input field failed validation. Err is one of the
// sentinel errors above so callers can match with errors.Is.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err comes from input validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTerm) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrMalformedInput)
}
