package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// PanicError wraps a panic value as an error
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverAsError recovers from a panic and stores it in *errPtr as a
// *PanicError. It must be deferred directly.
//
//	func doWork() (err error) {
//	    defer utils.RecoverAsError(&err)
//	    ...
//	}
func RecoverAsError(errPtr *error) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		*errPtr = &PanicError{
			Value:      r,
			StackTrace: stack,
		}
		slog.Error("Recovered from panic", "panic", r, "stack", stack)
	}
}

// Go runs fn in g, returning a panic from fn as the goroutine's error.
func Go(g *errgroup.Group, fn func() error) {
	g.Go(func() (err error) {
		defer RecoverAsError(&err)
		return fn()
	})
}
