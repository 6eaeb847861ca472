package types

import (
	"context"
	"errors"
	"fmt"
)

// ConnectivityError indicates that the graph store, embedding provider or
// generation service could not be reached.
type ConnectivityError struct {
	Component string
	Err       error
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s unreachable", e.Component)
	}
	return fmt.Sprintf("%s unreachable: %v", e.Component, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Is implements errors.Is support for ConnectivityError.
func (e *ConnectivityError) Is(target error) bool {
	_, ok := target.(*ConnectivityError)
	return ok
}

// NewConnectivityError creates a new connectivity error for a component.
func NewConnectivityError(component string, err error) *ConnectivityError {
	return &ConnectivityError{Component: component, Err: err}
}

// QueryError indicates a malformed or rejected query against the graph store.
type QueryError struct {
	Operation string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is implements errors.Is support for QueryError.
func (e *QueryError) Is(target error) bool {
	_, ok := target.(*QueryError)
	return ok
}

// NewQueryError creates a new query error for an operation.
func NewQueryError(operation string, err error) *QueryError {
	return &QueryError{Operation: operation, Err: err}
}

// GenerationError indicates the generation service returned an error.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Error communicating with %s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is implements errors.Is support for GenerationError.
func (e *GenerationError) Is(target error) bool {
	_, ok := target.(*GenerationError)
	return ok
}

// NewGenerationError creates a new generation error for a provider.
func NewGenerationError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Err: err}
}

// KindOf maps an error onto the failure taxonomy.
// Deadline expiry counts as a connectivity failure.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, &GenerationError{}):
		return FailureGeneration
	case errors.Is(err, &ConnectivityError{}), errors.Is(err, context.DeadlineExceeded):
		return FailureConnectivity
	case errors.Is(err, &QueryError{}):
		return FailureQuery
	default:
		return FailureInternal
	}
}

// FailureFrom builds a result failure from an error.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: KindOf(err), Message: err.Error()}
}
