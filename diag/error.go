package diag

import "errors"

// ErrCompilationFailed is a sentinel error returned (wrapped) by the root
// package's plain-error compile wrapper whenever a List carries at least
// one diagnostic, the way reporter.ErrInvalidSource works in the teacher
// (reporter/errors.go) for callers who only want an ordinary Go error and
// don't want to learn the Outcome monad (SPEC_FULL §2.1).
var ErrCompilationFailed = errors.New("capnproto: compilation reported one or more diagnostics")

// compileError adapts a non-empty List to an error whose Unwrap chain
// reaches ErrCompilationFailed, so callers can test it with errors.Is
// without caring about the concrete List type.
type compileError struct {
	list List
}

func (e *compileError) Error() string { return e.list.Error() }
func (e *compileError) Unwrap() error { return ErrCompilationFailed }

// Diagnostics returns the underlying batch, for callers that want to
// walk or sort individual diagnostics rather than format them as one
// block of text.
func (e *compileError) Diagnostics() List { return e.list }

// Err returns an error wrapping l, or nil if l is empty. Use this at a
// package boundary that wants a plain `error` return instead of forcing
// the caller to branch on a List's length themselves.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return &compileError{list: l}
}
