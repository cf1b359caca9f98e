package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCapacityExceeded  = errors.New("schedule is full")
	ErrDependentWrite    = errors.New("dependent write failed")
)

// ValidationError lists the payload fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing entity by collection and id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// InvalidTransitionError is returned when To is not reachable from From.
type InvalidTransitionError struct {
	Kind RequestKind
	From RequestStatus
	To   RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s request cannot move from %s to %s", e.Kind, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type CapacityExceededError struct {
	ScheduleID string
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("schedule %q has no remaining slots", e.ScheduleID)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// DependentWriteError wraps the failure of a secondary write that ran after
// the primary write had already committed. It is logged, never returned to clients.
type DependentWriteError struct {
	Op  string
	Err error
}

func (e *DependentWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is makes errors.Is(err, ErrDependentWrite) match while Unwrap exposes the cause.
func (e *DependentWriteError) Is(target error) bool { return target == ErrDependentWrite }

func (e *DependentWriteError) Unwrap() error { return e.Err }
