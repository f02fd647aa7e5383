package diag

// Outcome is the compiler's pervasive result type (spec §3.1): either
// Active (a value, possibly alongside errors already accumulated against
// it) or Failed (no value, and at least one error). Failed must never
// carry a value, and Failed must never carry zero errors; both
// invariants are enforced by the constructors below, not by exported
// fields, so the zero value of Outcome is never directly constructed by
// callers outside this package.
type Outcome[T any] struct {
	value  T
	pending func() T // set only by Recover; if non-nil, the real value
	errs   List
	failed bool
}

// Active builds a present-but-possibly-defective result.
func Active[T any](value T, errs ...Diagnostic) Outcome[T] {
	return Outcome[T]{value: value, errs: List(errs)}
}

// Failed builds a result with no value. Panics if errs is empty: a
// Failed outcome with no errors is a contract violation (spec §8.1.2).
func Failed[T any](errs ...Diagnostic) Outcome[T] {
	if len(errs) == 0 {
		panic("diag: Failed constructed with no errors")
	}
	return Outcome[T]{errs: List(errs), failed: true}
}

// FailedList is Failed but takes an already-built List.
func FailedList[T any](errs List) Outcome[T] {
	if len(errs) == 0 {
		panic("diag: Failed constructed with no errors")
	}
	return Outcome[T]{errs: errs, failed: true}
}

func (o Outcome[T]) IsFailed() bool   { return o.failed }
func (o Outcome[T]) Errors() List     { return o.errs }
func (o Outcome[T]) HasErrors() bool  { return len(o.errs) > 0 }

// Value returns the carried value and whether the outcome is non-failed.
// Callers that only want errors (see Recover's laziness requirement)
// should prefer Errors() so as not to imply they need the value: a
// recovered outcome's value may be a thunk that is only evaluated here,
// never before.
func (o Outcome[T]) Value() (T, bool) {
	if o.failed {
		return o.value, false
	}
	if o.pending != nil {
		return o.pending(), true
	}
	return o.value, true
}

// Must returns the value, panicking if the outcome failed. Intended only
// for call sites that have already checked IsFailed (or that construct
// the outcome themselves and know it cannot fail).
func (o Outcome[T]) Must() T {
	v, ok := o.Value()
	if !ok {
		panic("diag: Must called on a Failed outcome")
	}
	return v
}

// Map transforms the value of a non-failed outcome, preserving errors.
func Map[T, U any](o Outcome[T], f func(T) U) Outcome[U] {
	if o.failed {
		return Outcome[U]{errs: o.errs, failed: true}
	}
	v, _ := o.Value()
	return Outcome[U]{value: f(v), errs: o.errs}
}

// AndThen sequences a dependent computation: Failed short-circuits
// without invoking f; Active invokes f and merges its diagnostics onto
// the ones already accumulated.
func AndThen[T, U any](o Outcome[T], f func(T) Outcome[U]) Outcome[U] {
	if o.failed {
		return Outcome[U]{errs: o.errs, failed: true}
	}
	v, _ := o.Value()
	next := f(v)
	merged := make(List, 0, len(o.errs)+len(next.errs))
	merged = append(merged, o.errs...)
	merged = append(merged, next.errs...)
	if next.failed {
		return Outcome[U]{errs: merged, failed: true}
	}
	nv, _ := next.Value()
	return Outcome[U]{value: nv, errs: merged}
}

// Recover converts a Failed outcome into Active(fallback(), errors). The
// conversion is lazy: fallback is stored as a pending thunk and is only
// invoked the first time something reads the recovered outcome's value
// (Value/Must, or a downstream Map/AndThen/DoAll that needs it) — not at
// the moment Recover itself is called. A caller that only inspects
// Errors() on the result never forces fallback at all (spec §3.1). This
// is what makes the self-referential "feedback" pattern safe: a
// fallback that would dereference a not-yet-built descriptor is never
// forced when the outcome is actually failed and only errors matter. An
// Active outcome is returned unchanged.
func Recover[T any](o Outcome[T], fallback func() T) Outcome[T] {
	if !o.failed {
		return o
	}
	return Outcome[T]{pending: fallback, errs: o.errs}
}

// WithErrors returns o with extra diagnostics appended, preserving its
// Active/Failed status.
func (o Outcome[T]) WithErrors(extra ...Diagnostic) Outcome[T] {
	o.errs = append(append(List{}, o.errs...), extra...)
	return o
}

// DoAll runs every outcome in os to completion, collecting every value
// from non-failed entries and every diagnostic from all of them,
// regardless of whether individual entries failed. This is the
// aggregate-siblings combinator spec §7 requires of doAll: no entry's
// failure suppresses another's contribution.
func DoAll[T any](os []Outcome[T]) Outcome[[]T] {
	values := make([]T, 0, len(os))
	var errs List
	for _, o := range os {
		errs = append(errs, o.errs...)
		if !o.failed {
			v, _ := o.Value()
			values = append(values, v)
		}
	}
	return Outcome[[]T]{value: values, errs: errs}
}
