package categorizer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDataLoad       = errors.New("data load error")
	ErrClient         = errors.New("client error")
	ErrAuthentication = errors.New("authentication error")
	ErrTimeout        = errors.New("timeout error")
	ErrUpstream       = errors.New("upstream error")
	ErrParse          = errors.New("parse error")
	ErrValidation     = errors.New("validation error")
)

// DataLoadError reports an unusable ticket or taxonomy input.
type DataLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "data load error: " + msg
}

func (e *DataLoadError) Unwrap() error        { return e.Err }
func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// NewDataLoadError builds a DataLoadError for path.
func NewDataLoadError(path, reason string, err error) *DataLoadError {
	return &DataLoadError{Path: path, Reason: reason, Err: err}
}

// ClientError is a failure talking to the model endpoint. Kind is one of
// ErrTimeout, ErrAuthentication or ErrUpstream.
type ClientError struct {
	Kind     error
	Provider string
	Err      error
}

func (e *ClientError) Error() string {
	kind := ErrUpstream
	if e.Kind != nil {
		kind = e.Kind
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", kind, e.Provider)
	}
	return fmt.Sprintf("%s: %s: %v", kind, e.Provider, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

func (e *ClientError) Is(target error) bool {
	if target == ErrClient {
		return true
	}
	if e.Kind == nil {
		return target == ErrUpstream
	}
	return target == e.Kind
}

// NewClientError builds a ClientError of the given kind.
func NewClientError(kind error, provider string, err error) *ClientError {
	return &ClientError{Kind: kind, Provider: provider, Err: err}
}

// ParseError reports a model response that is not well-formed for the case.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Mismatch is one category or subcategory name that is absent from the taxonomy.
// Index is the position of the offending item (0 for case 1).
type Mismatch struct {
	Index       int    `json:"index"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

func (m Mismatch) String() string {
	if m.Subcategory == "" {
		return fmt.Sprintf("item %d: unknown category %q", m.Index, m.Category)
	}
	return fmt.Sprintf("item %d: unknown subcategory %q in category %q", m.Index, m.Subcategory, m.Category)
}

// ValidationError reports a well-formed result that names categories or
// subcategories missing from the taxonomy. Result holds the parsed value so
// the caller can still accept it.
type ValidationError struct {
	Case       Case
	Mismatches []Mismatch
	Result     Result
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = m.String()
	}
	return fmt.Sprintf("validation error: %s result references names outside the taxonomy: %s",
		e.Case.Key(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
