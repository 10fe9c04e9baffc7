package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of outcomes a task operation can have.
type Kind int

const (
	KindSuccess Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// User visible messages.
const (
	MsgTaskNotFound    = "Unable to Find This Task"
	MsgUnauthenticated = "Unauthenticated."
	MsgInternal        = "Something went wrong"
)

var (
	// ErrTaskNotFound covers both missing tasks and tasks the actor does not own.
	ErrTaskNotFound = errors.New("task not found")
	ErrUnauthorized = errors.New("unauthenticated")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// KindOf classifies err. Anything unrecognised is internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrTaskNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
