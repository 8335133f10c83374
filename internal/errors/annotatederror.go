// Package errors wraps the standard library errors package with errors that carry structured log attributes and the
// source location where they were created.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// annotatedError adds a message, slog attributes and the creation site to an error.
type annotatedError struct {
	err    error
	msg    string
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates a plain error meant to be declared as a package level variable and compared with Is.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // sentinel constructor
}

// New creates an error annotated with attrs and the caller location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{err: nil, msg: msg, attrs: attrs, source: callerSource(2)} //nolint:mnd // caller of New
}

// Wrap prefixes err with msg and annotates it with attrs and the caller location.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{err: err, msg: msg, attrs: attrs, source: callerSource(2)} //nolint:mnd // caller of Wrap
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked. It returns nil
// when excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	e := &annotatedError{err: nil, msg: "", attrs: nil, source: panicSource()}
	if err, ok := excp.(error); ok {
		e.err = err
		e.msg = "panic"
	} else {
		e.msg = fmt.Sprintf("panic: %v", excp)
	}
	return e
}

// SlogError renders err as an "error" group containing the message, the merged annotations of the whole chain and
// the source location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		annotations []any
		source      string
	)
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		var ae *annotatedError
		if ae, _ = e.(*annotatedError); ae == nil {
			continue
		}
		for _, a := range ae.attrs {
			annotations = append(annotations, a)
		}
		source = ae.source
	}

	args := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		args = append(args, slog.Group("annotations", annotations...))
	}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	return slog.Group("error", args...)
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// panicSource finds the frame that called panic by looking for the frame following runtime.gopanic.
func panicSource() string {
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough for any handler stack
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors. Nil errors are discarded.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
