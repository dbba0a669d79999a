package luapb

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	ArgumentError ErrorKind = iota + 1
	RangeError
	TypeMismatch
	StateError
	CodecError
	NameError
	ImmutableError
)

var errorKindNames = map[ErrorKind]string{
	ArgumentError:  "ArgumentError",
	RangeError:     "RangeError",
	TypeMismatch:   "TypeMismatch",
	StateError:     "StateError",
	CodecError:     "CodecError",
	NameError:      "NameError",
	ImmutableError: "ImmutableError",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is raised by binding operations. Inside Lua its message is prefixed
// with the kind, e.g. "RangeError: index must be between 1 and 3".
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
