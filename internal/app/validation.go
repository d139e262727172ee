package app

import "errors"

// validationError marks rule violations caught before any backend call so
// HTTP handlers can map them to 400s instead of 502s.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation distinguishes local validation failures from backend ones.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
