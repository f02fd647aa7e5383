package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partylemon/capnproto/ast"
)

func TestFailedPanicsOnNoErrors(t *testing.T) {
	assert.Panics(t, func() { Failed[int]() })
	assert.Panics(t, func() { FailedList[int](nil) })
}

func TestActiveCarriesErrorsButNotFailed(t *testing.T) {
	d := New(ast.Pos{}, "oops")
	o := Active(7, d)
	assert.False(t, o.IsFailed())
	assert.True(t, o.HasErrors())
	v, ok := o.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestRecoverIsLazyAboutFallback(t *testing.T) {
	called := false
	fallback := func() int {
		called = true
		return 42
	}

	// An Active outcome must never force the fallback.
	active := Active(1)
	_ = Recover(active, fallback)
	assert.False(t, called, "Recover must not evaluate fallback for an Active outcome")

	// A Failed outcome forces it exactly when the value is asked for.
	failed := Failed[int](New(ast.Pos{}, "bad"))
	recovered := Recover(failed, fallback)
	assert.False(t, called, "Recover must not eagerly evaluate fallback before the value is read")
	v, ok := recovered.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.True(t, called)
	assert.True(t, recovered.HasErrors())
}

func TestRecoverSelfReferentialFeedbackNeverForcesOnFailure(t *testing.T) {
	// Models the parent/member-map self-reference (spec §3.1): a fallback
	// that would dereference something only valid on success must never
	// be invoked when the outcome actually failed and only errors are
	// inspected.
	failed := Failed[*int](New(ast.Pos{}, "compile error"))
	fallback := func() *int {
		panic("fallback forced even though caller only wants errors")
	}
	out := Recover(failed, fallback)
	assert.NotPanics(t, func() { _ = out.Errors() })
}

func TestAndThenShortCircuitsOnFailedButMergesErrorsOnActive(t *testing.T) {
	failed := Failed[int](New(ast.Pos{}, "first"))
	ran := false
	out := AndThen(failed, func(int) diagOutcomeIntHelper { ran = true; return Active(0) })
	assert.False(t, ran)
	assert.True(t, out.IsFailed())

	active := Active(1, New(ast.Pos{}, "warn-a"))
	out2 := AndThen(active, func(v int) diagOutcomeIntHelper {
		return Active(v+1, New(ast.Pos{}, "warn-b"))
	})
	assert.False(t, out2.IsFailed())
	v, ok := out2.Value()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Len(t, out2.Errors(), 2)
}

// diagOutcomeIntHelper aliases Outcome[int] to keep the AndThen type
// signatures above on one line.
type diagOutcomeIntHelper = Outcome[int]

func TestDoAllAggregatesAllSiblingsRegardlessOfIndividualFailure(t *testing.T) {
	a := Active(1)
	b := Failed[int](New(ast.Pos{}, "b failed"))
	c := Active(3, New(ast.Pos{}, "c warning"))
	all := DoAll([]Outcome[int]{a, b, c})
	assert.False(t, all.IsFailed())
	v, ok := all.Value()
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, v)
	assert.Len(t, all.Errors(), 2)
}

func TestMapPreservesErrorsAndFailedStatus(t *testing.T) {
	failed := Failed[int](New(ast.Pos{}, "nope"))
	out := Map(failed, func(v int) string { return "unreachable" })
	assert.True(t, out.IsFailed())

	active := Active(2, New(ast.Pos{}, "warn"))
	out2 := Map(active, func(v int) int { return v * 10 })
	v, ok := out2.Value()
	require.True(t, ok)
	assert.Equal(t, 20, v)
	assert.Len(t, out2.Errors(), 1)
}

func TestMustPanicsOnFailed(t *testing.T) {
	failed := Failed[int](New(ast.Pos{}, "nope"))
	assert.Panics(t, func() { failed.Must() })
	assert.NotPanics(t, func() { Active(5).Must() })
}
