// Package invariant provides contract assertions for the SATURATE VM.
//
// Adapted from the teacher's Tiger-Style assertions: these catch programmer
// errors in the executor (counters going backwards, bounds silently
// exceeded, mutation of an AST that must stay immutable), never program
// input. A malformed or resource-exhausting program is never an invariant
// violation; it is a typed Status produced by the finalizer. Reaching for
// Invariant() on program-supplied data is a bug in the caller, not a safety
// net for it.
package invariant

import (
	"fmt"
	"runtime"
)

// Invariant panics with an INVARIANT VIOLATION if condition is false.
// Use for internal consistency checks: counter monotonicity, bounds that
// must have already been enforced by a guard, AST immutability.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// Precondition panics with a PRECONDITION VIOLATION if condition is false.
// Use to validate arguments passed between internal executor functions.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition panics with a POSTCONDITION VIOLATION if condition is false.
// Use to validate guarantees an internal function makes to its caller.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
