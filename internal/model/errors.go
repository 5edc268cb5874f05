package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies failures of the sweep.
type ErrorKind string

const (
	KindInputLoad        ErrorKind = "input_load"
	KindGeometry         ErrorKind = "geometry"
	KindInvalidParameter ErrorKind = "invalid_parameter"
	KindAggregation      ErrorKind = "aggregation"
	KindSchema           ErrorKind = "schema"
	KindStoreWrite       ErrorKind = "store_write"
	KindUnknown          ErrorKind = "unknown"
)

// Fatal reports whether errors of this kind abort before the sweep starts.
func (k ErrorKind) Fatal() bool {
	return k == KindInputLoad || k == KindSchema
}

// Error attaches a kind to an underlying error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind. Returns nil for a nil err.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf creates a new kinded error with an eris stack.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: eris.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost kinded error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}
