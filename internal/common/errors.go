package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Processing error taxonomy. Only ErrImageDecode and ErrAllStrategiesExhausted
// are terminal for a receipt; the rest are absorbed into stage failures and
// handed to the fallback manager.
var (
	ErrImageDecode            = errors.New("image decode failure")
	ErrProviderUnavailable    = errors.New("provider unavailable")
	ErrProviderTimeout        = errors.New("provider timeout")
	ErrLowConfidenceParse     = errors.New("low confidence parse")
	ErrMalformedResponse      = errors.New("malformed response")
	ErrValidationFailure      = errors.New("validation failure")
	ErrBudgetExceeded         = errors.New("budget exceeded")
	ErrAllStrategiesExhausted = errors.New("all fallback strategies exhausted")
	ErrInvalidInput           = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsTerminal reports whether the error ends processing for the receipt.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrImageDecode) || errors.Is(err, ErrAllStrategiesExhausted)
}
