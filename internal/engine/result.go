package engine

import "fmt"

// Result is the outcome of a single Execute call. It is a three-way
// tagged value: empty (the snippet produced nothing), value (the
// trailing expression produced something), or error (the snippet
// failed to classify, compile, or run). A Result is immutable once
// built.
type Result struct {
	value    any
	hasValue bool
	err      error
}

// EmptyResult returns a Result for a snippet that ran successfully
// without producing a value (e.g. a declaration or a void statement).
func EmptyResult() Result {
	return Result{}
}

// ValueResult returns a Result carrying the value produced by the
// snippet's trailing expression.
func ValueResult(v any) Result {
	return Result{value: v, hasValue: true}
}

// ErrorResult returns a Result carrying a user-code failure. The
// session that produced it remains usable.
func ErrorResult(err error) Result {
	return Result{err: err}
}

// Value returns the produced value and whether one was produced.
func (r Result) Value() (any, bool) {
	return r.value, r.hasValue
}

// Err returns the failure carried by the result, or nil.
func (r Result) Err() error {
	return r.err
}

// IsError reports whether the result carries a failure.
func (r Result) IsError() bool {
	return r.err != nil
}

func (r Result) String() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("error: %v", r.err)
	case r.hasValue:
		return fmt.Sprintf("%v", r.value)
	default:
		return "<no value>"
	}
}
