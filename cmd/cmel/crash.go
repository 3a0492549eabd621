package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
)

// hostError pairs a plain error with the Go call site that produced
// it. This is deliberately separate from the language's own
// RuntimeError (spec.md §7's bytecode-level stack trace): a hostError
// means the CLI itself failed (bad path, corrupt cache, bad flag), not
// that the interpreted program did.
type hostError struct {
	op    string
	err   error
	frame stack.Call
}

func (h *hostError) Error() string {
	return fmt.Sprintf("%s: %v", h.op, h.err)
}

// wrapHostError annotates err with the caller's location via
// go-stack/stack, the way ProbeChain's log package attaches caller
// context to structured log lines.
func wrapHostError(op string, err error) error {
	return &hostError{op: op, err: err, frame: stack.Caller(1)}
}

// reportHostError prints a host-level failure to stderr in red
// (fatih/color), including the Go source location for hostErrors so
// a bug report has enough to go on without re-running with -v.
func reportHostError(err error) {
	red := color.New(color.FgRed)
	if he, ok := err.(*hostError); ok {
		red.Fprintf(os.Stderr, "cmel: %s: %v\n", he.op, he.err)
		fmt.Fprintf(os.Stderr, "  at %+v\n", he.frame)
		return
	}
	red.Fprintf(os.Stderr, "cmel: %v\n", err)
}
