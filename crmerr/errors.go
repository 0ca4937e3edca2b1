// ABOUTME: Error kinds shared by the transport, adapter, and coordinator
// ABOUTME: Classifies failures as network, authentication, validation, or configuration errors
package crmerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork is a transport failure. Callers may re-issue the action.
	KindNetwork
	// KindAuthentication means the token is missing, expired, or rejected.
	KindAuthentication
	// KindValidation means the remote rejected the payload.
	KindValidation
	// KindConfiguration means the request could never succeed (unknown resource, malformed params).
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	}
	return "unknown"
}

// Sentinels for errors.Is matching against a Kind.
var (
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConfiguration  = &Error{Kind: KindConfiguration}
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields carries field-level validation messages keyed by field name.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// Authentication builds an authentication error.
func Authentication(op, message string) *Error {
	return &Error{Kind: KindAuthentication, Op: op, Message: message}
}

// Validation builds a validation error with optional field messages.
func Validation(op, message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Fields: fields}
}

// Configuration builds a configuration error.
func Configuration(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MutationFailed is delivered to failure hooks after an optimistic mutation was rolled back.
type MutationFailed struct {
	Resource string
	ID       string
	Op       string
	Err      error
}

func (m *MutationFailed) Error() string {
	return fmt.Sprintf("%s %s/%s failed: %v", m.Op, m.Resource, m.ID, m.Err)
}

func (m *MutationFailed) Unwrap() error {
	return m.Err
}
