package generate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput matches every *MalformedInputError.
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingField matches every *MissingFieldError.
	ErrMissingField = errors.New("missing field")
)

// MalformedInputError reports a split file that is not valid JSON, whose
// top-level value is not an array, or whose element or field has the
// wrong JSON type. Index and Field are -1 and "" when the failure is not
// tied to one element.
type MalformedInputError struct {
	Path  string
	Index int
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("generate: malformed input")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": element %d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// MissingFieldError reports an element that lacks a field required by the
// active configuration.
type MissingFieldError struct {
	Path  string
	Index int
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("generate: element %d: missing field %q", e.Index, e.Field)
	}
	return fmt.Sprintf("generate: %s: element %d: missing field %q", e.Path, e.Index, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

func malformed(path string, index int, field string, err error) error {
	return &MalformedInputError{Path: path, Index: index, Field: field, Err: err}
}
