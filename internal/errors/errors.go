package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExternalAPI  = errors.New("external API error")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Is allows error comparison using errors.Is
func (e ValidationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidInput)
}

// ProviderError represents an error from a registry data provider
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Is allows error comparison using errors.Is
func (e ProviderError) Is(target error) bool {
	return errors.Is(target, ErrExternalAPI)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
