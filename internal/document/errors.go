package document

import (
	"errors"
	"fmt"
)

// Validation messages.
const (
	MsgMissingFields     = "missing required fields"
	MsgInvalidCollection = "invalid collection"
	MsgInvalidBody       = "invalid request body"
)

// ValidationError is a client-correctable input problem (HTTP 400).
type ValidationError struct {
	Message string
	// Required lists the mandatory fields when some were missing.
	Required []string
	// ValidCollections lists the accepted names when the collection was unknown.
	ValidCollections []string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrMissingFields builds the error for an absent collection or data field.
func ErrMissingFields() *ValidationError {
	return &ValidationError{Message: MsgMissingFields, Required: []string{"collection", "data"}}
}

// ErrInvalidCollection builds the error for a collection outside Collections.
func ErrInvalidCollection() *ValidationError {
	return &ValidationError{Message: MsgInvalidCollection, ValidCollections: Collections()}
}

// StoreError wraps a failure while talking to the store (HTTP 500).
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
