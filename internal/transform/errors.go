package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the pipeline stage that rejected the input.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFileType
	KindFileRead
	KindColumnNotFound
	KindInvalidPattern
	KindSubstitution
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFileType:
		return "UnsupportedFileType"
	case KindFileRead:
		return "FileReadError"
	case KindColumnNotFound:
		return "ColumnNotFound"
	case KindInvalidPattern:
		return "InvalidPattern"
	case KindSubstitution:
		return "SubstitutionError"
	default:
		return "Unknown"
	}
}

// Error is returned by every pipeline stage. Msg is safe to show to the
// person who sent the request.
type Error struct {
	Kind Kind
	Msg  string

	// Available lists the table's column names for KindColumnNotFound.
	Available []string

	Err error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare kind sentinels below, so callers can write
// errors.Is(err, transform.ErrColumnNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrUnsupportedFileType = &Error{Kind: KindUnsupportedFileType}
	ErrFileRead            = &Error{Kind: KindFileRead}
	ErrColumnNotFound      = &Error{Kind: KindColumnNotFound}
	ErrInvalidPattern      = &Error{Kind: KindInvalidPattern}
	ErrSubstitution        = &Error{Kind: KindSubstitution}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

func unsupportedFileType(ext string, cause error) *Error {
	return &Error{
		Kind: KindUnsupportedFileType,
		Msg:  fmt.Sprintf("unsupported file type %q (expected csv, xlsx or xls)", ext),
		Err:  cause,
	}
}

func fileRead(cause error) *Error {
	return &Error{
		Kind: KindFileRead,
		Msg:  "error reading file: " + cause.Error(),
		Err:  cause,
	}
}

func columnNotFound(requested string, available []string) *Error {
	return &Error{
		Kind:      KindColumnNotFound,
		Msg:       fmt.Sprintf("column %q not found; available columns: %s", requested, quoteList(available)),
		Available: available,
	}
}

func invalidPattern(cause error) *Error {
	return &Error{
		Kind: KindInvalidPattern,
		Msg:  "invalid regex pattern: " + cause.Error(),
		Err:  cause,
	}
}

func substitution(cause error) *Error {
	return &Error{
		Kind: KindSubstitution,
		Msg:  "error applying regex: " + cause.Error(),
		Err:  cause,
	}
}

// quoteList renders names as ["a", "b"].
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
