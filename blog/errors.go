package blog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches a TransportError carrying a 404.
var ErrNotFound = errors.New("entry not found")

// TransportError is returned for network failures and non-2xx responses.
// Status is zero when the request never got a response.
type TransportError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// FieldError names one violated field. Field uses the JSON path, e.g. "data[2].title".
type FieldError struct {
	Field string
	Rule  string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Rule
	}
	return f.Field + ": " + f.Rule
}

// ValidationError reports a payload that does not have the expected shape.
type ValidationError struct {
	Kind   string // which shape was checked, e.g. "paged entries"
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
