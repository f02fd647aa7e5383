// Package diag carries the compiler's diagnostic and outcome types: a
// located diagnostic message, and the Active/Failed outcome monad that
// every compilation step returns so that errors accumulate instead of
// halting the whole run.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/partylemon/capnproto/ast"
)

// Kind classifies a Diagnostic the way a human reads it: a flat statement
// of fact, or "expected X, found Y" shape mismatch.
type Kind int

const (
	Message Kind = iota
	Expect
)

// Diagnostic is a single located compiler error (spec §6.3): a
// (SourcePos, kind, message) triple. It implements error so a Diagnostic
// can be returned, wrapped, or compared with errors.As/errors.Is.
type Diagnostic struct {
	Pos   ast.Pos
	Kind  Kind
	Msg   string
	Cause error // optional: a structured error this diagnostic wraps
}

func New(pos ast.Pos, format string, args ...any) Diagnostic {
	return Diagnostic{Pos: pos, Kind: Message, Msg: fmt.Sprintf(format, args...)}
}

func Expected(pos ast.Pos, want string) Diagnostic {
	return Diagnostic{Pos: pos, Kind: Expect, Msg: fmt.Sprintf("expected %s", want)}
}

func Wrap(pos ast.Pos, cause error) Diagnostic {
	return Diagnostic{Pos: pos, Kind: Message, Msg: cause.Error(), Cause: cause}
}

func (d Diagnostic) Error() string {
	if d.Pos.IsZero() {
		return d.Msg
	}
	return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
}

func (d Diagnostic) Unwrap() error { return d.Cause }

// List is a batch of diagnostics. It implements error so a whole batch can
// be handed back through an ordinary Go error-returning function (see
// List.Err, used by the root package's Compile wrapper).
type List []Diagnostic

func (l List) Error() string {
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// Sorted returns a copy of l ordered by (file, line, col), the
// deterministic print order spec.md leaves implicit.
func (l List) Sorted() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return out
}

// Structured diagnostic causes, grounded on reporter/errors.go's
// AlreadyDefinedError: a dedicated type per structural error class so
// callers can errors.As them out of a compiled result for tooling.

type DuplicateNameError struct {
	Name     string
	Previous ast.Pos
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%q already declared at %s", e.Name, e.Previous)
}

type DuplicateNumberError struct {
	Kind     string
	Number   uint16
	Previous ast.Pos
}

func (e *DuplicateNumberError) Error() string {
	return fmt.Sprintf("%s number %d already used at %s", e.Kind, e.Number, e.Previous)
}

type OrdinalOutOfRangeError struct {
	Number uint16
	Max    uint16
}

func (e *OrdinalOutOfRangeError) Error() string {
	return fmt.Sprintf("ordinal %d exceeds maximum of %d", e.Number, e.Max)
}
