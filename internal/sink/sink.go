// Package sink holds the process-wide warning and error diagnostic
// handlers: a process-wide state holder with an explicit "set before any
// receive thread starts" contract, replacing the scattered callback
// pointers a C port of this protocol would otherwise need.
//
// The default handlers call the standard library log package, matching
// the plain log.Printf style used elsewhere in this module (no
// structured logging framework).
package sink

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Handler receives a single-line diagnostic message.
type Handler func(msg string)

var (
	warningHandler atomic.Value // Handler
	errorHandler   atomic.Value // Handler
)

func init() {
	warningHandler.Store(Handler(defaultHandler("WARN")))
	errorHandler.Store(Handler(defaultHandler("ERROR")))
}

func defaultHandler(level string) Handler {
	return func(msg string) {
		log.Printf("%s %s", level, msg)
	}
}

// SetWarningHandler installs the process-wide warning sink. Callers must
// set this before starting any receive goroutine; the core never
// synchronizes access to the handler value beyond the atomic load/store
// here.
func SetWarningHandler(h Handler) {
	if h == nil {
		h = defaultHandler("WARN")
	}
	warningHandler.Store(h)
}

// SetErrorHandler installs the process-wide error sink.
func SetErrorHandler(h Handler) {
	if h == nil {
		h = defaultHandler("ERROR")
	}
	errorHandler.Store(h)
}

// Warnf reports a recoverable condition the library handled on the
// caller's behalf (e.g. an expected-count mismatch across fragments).
func Warnf(format string, args ...any) {
	warningHandler.Load().(Handler)(fmt.Sprintf(format, args...))
}

// Errorf reports a genuine protocol violation or bind conflict.
func Errorf(format string, args ...any) {
	errorHandler.Load().(Handler)(fmt.Sprintf(format, args...))
}
