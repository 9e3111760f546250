// Package kernel holds the handful of symbols that must be reachable
// from the Go runtime's own redirect hooks (panic, and eventually the
// scheduler's fatal-error path) rather than from ordinary imports.
package kernel

import (
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/kfmt"
)

var (
	// haltFn is swapped out by tests; in production it is arch.Halt.
	haltFn = arch.Halt

	errRuntimePanic = &panicError{message: "unknown cause"}
)

type panicError struct{ message string }

func (e *panicError) Error() string { return e.message }

// Panic prints the supplied error (if any) to the active console and
// halts the current hart. Panic never returns.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var msg string

	switch t := e.(type) {
	case nil:
	case string:
		msg = t
	case error:
		msg = t.Error()
	default:
		msg = errRuntimePanic.message
	}

	kfmt.Printf("\n-----------------------------------\n")
	if msg != "" {
		kfmt.PrintfErr("kernel panic: %s\n", msg)
	}
	kfmt.Printf("*** system halted ***\n")
	kfmt.Printf("-----------------------------------\n")

	haltFn()
}
