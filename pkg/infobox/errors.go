package infobox

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrMalformedTemplate = errors.New("malformed template")
	ErrMissingField      = errors.New("missing required field")
	ErrUnknownEnumValue  = errors.New("unknown enum value")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrInvalidValue      = errors.New("invalid value")
	ErrTemplateMismatch  = errors.New("template mismatch")
)

// FieldError reports a field that failed validation together with the raw
// text that was rejected. Err is one of the sentinel errors above.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(field, value string, err error) error {
	return &FieldError{Field: field, Value: value, Err: err}
}
