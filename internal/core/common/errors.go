package common

import (
	"errors"
	"fmt"
)

// ConfigurationError is raised before any provider call when the pipeline
// cannot be wired, e.g. a missing API key.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ProviderError is a failed embedding or text-generation call. It is scoped
// to one batch; other batches are unaffected.
type ProviderError struct {
	Provider  string
	Operation string
	Batch     int
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("provider %s failed during %s (batch %d): %v", e.Provider, e.Operation, e.Batch, e.Err)
	}
	return fmt.Sprintf("provider %s failed during %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DataError reports malformed vectors: zero length, wrong dimension or a
// provider returning the wrong number of vectors.
type DataError struct {
	ContentID string
	Reason    string
}

func (e *DataError) Error() string {
	if e.ContentID == "" {
		return "data error: " + e.Reason
	}
	return fmt.Sprintf("data error for content %s: %s", e.ContentID, e.Reason)
}

func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

func NewDataError(contentID, format string, args ...any) error {
	return &DataError{ContentID: contentID, Reason: fmt.Sprintf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

func IsDataError(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}
