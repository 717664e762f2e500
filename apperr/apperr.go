// Package apperr defines the error kinds shared by every pizzastore component.
//
// Components return *Error values carrying a Kind; presentation layers classify
// them with KindOf or errors.Is against the Kind sentinels:
//
//	if errors.Is(err, apperr.NotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Kinds are comparable and usable as errors.Is targets.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	Unauthorized
	Unauthenticated
	Conflict
	Validation
	StoreError
)

var kindNames = map[Kind]string{
	Unknown:         "unknown",
	NotFound:        "not found",
	Unauthorized:    "unauthorized",
	Unauthenticated: "unauthenticated",
	Conflict:        "conflict",
	Validation:      "invalid input",
	StoreError:      "store error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error lets a bare Kind act as a sentinel.
func (k Kind) Error() string { return k.String() }

// Error is the concrete error type returned by components.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "orders.PlaceOrder"
	Msg  string // user-facing message
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return e.Op + ": " + msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind sentinel against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds an error with a fixed message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Errorf builds an error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to a cause.
func Wrap(kind Kind, op string, err error, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf reports the kind of err. nil yields Unknown; errors that carry no kind
// are treated as StoreError.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return StoreError
}

// Message returns the user-facing text of err without operation prefixes or
// driver detail.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.String()
	}
	return err.Error()
}
