package docstore

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Program Type
// --------------------------------------------------------------------------

// Program is an inert description of a sequence of document store
// operations yielding a value of type T. Constructing or composing a
// Program performs no I/O; only Run (or RunAsync) executes it. A Program
// is immutable and may be run any number of times against different
// interpreters with identical behavior.
type Program[T any] struct {
	eval func(ctx context.Context, it IInterpreter) (T, error)
}

// Run executes the Program against the given interpreter: steps run in
// script order, strictly sequentially, and the first failure short-circuits
// all remaining steps. The interpreter is the explicitly passed backend
// resource; the engine holds no global state.
func (p Program[T]) Run(ctx context.Context, it IInterpreter) (T, error) {
	return p.eval(ctx, it)
}

// Outcome is the single result of an asynchronous Program execution.
type Outcome[T any] struct {
	Value T
	Err   error
}

// RunAsync starts the Program in its own goroutine and returns a channel
// that delivers exactly one Outcome. The returned channel is buffered, so
// an abandoned result does not leak the goroutine.
func (p Program[T]) RunAsync(ctx context.Context, it IInterpreter) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		v, err := p.Run(ctx, it)
		ch <- Outcome[T]{Value: v, Err: err}
	}()
	return ch
}

// --------------------------------------------------------------------------
// Lifts and Combinators
// --------------------------------------------------------------------------

// Pure lifts an already-known value into a Program without touching any
// backend. It is the neutral element of AndThen.
func Pure[T any](v T) Program[T] {
	return Program[T]{eval: func(context.Context, IInterpreter) (T, error) {
		return v, nil
	}}
}

// Fail lifts an already-known failure into a Program without touching any
// backend. Useful for injecting synthetic failures in tests and for pure
// validation between database steps.
func Fail[T any](err error) Program[T] {
	return Program[T]{eval: func(context.Context, IInterpreter) (T, error) {
		var zero T
		return zero, err
	}}
}

// AndThen sequences two Programs: p runs first; if it fails, the combined
// result is that failure and f is never invoked. If it succeeds, f is
// applied to the value and the resulting Program produces the final result.
func AndThen[A, B any](p Program[A], f func(A) Program[B]) Program[B] {
	return Program[B]{eval: func(ctx context.Context, it IInterpreter) (B, error) {
		a, err := p.Run(ctx, it)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a).Run(ctx, it)
	}}
}

// Map transforms the success value of a Program with a pure function,
// preserving any failure unchanged.
func Map[A, B any](p Program[A], f func(A) B) Program[B] {
	return AndThen(p, func(a A) Program[B] { return Pure(f(a)) })
}

// --------------------------------------------------------------------------
// Operation Constructors
// --------------------------------------------------------------------------

// Step lifts a single Operation into a Program. The type parameter must be
// the success type of the operation variant (see the table in the package
// documentation); the constructors below fix it correctly and should be
// preferred.
func Step[T any](op Operation) Program[T] {
	return Program[T]{eval: func(ctx context.Context, it IInterpreter) (T, error) {
		v, err := op.apply(ctx, it)
		if err != nil {
			var zero T
			return zero, err
		}
		t, ok := v.(T)
		if !ok {
			var zero T
			return zero, NewGeneralError(fmt.Errorf("operation %s: unexpected result type %T, expected %T", op, v, zero))
		}
		return t, nil
	}}
}

// Get builds a single-step Program fetching one document.
func Get(key Key) Program[Document] {
	return Step[Document](GetDocOp{Key: key})
}

// Create builds a single-step Program inserting a new document.
func Create(key Key, value RawValue) Program[Document] {
	return Step[Document](CreateDocOp{Key: key, Value: value})
}

// Update builds a single-step Program replacing a document under an
// optimistic concurrency precondition.
func Update(key Key, value RawValue, expected CommitVersion) Program[Document] {
	return Step[Document](UpdateDocOp{Key: key, Value: value, Expected: expected})
}

// Remove builds a single-step Program deleting one document.
func Remove(key Key) Program[Unit] {
	return Step[Unit](RemoveKeyOp{Key: key})
}

// GetCounter builds a single-step Program reading an integer counter.
func GetCounter(key Key) Program[int64] {
	return Step[int64](GetCounterOp{Key: key})
}

// IncrCounter builds a single-step Program atomically adding delta to an
// integer counter.
func IncrCounter(key Key, delta int64) Program[int64] {
	return Step[int64](IncrementCounterOp{Key: key, Delta: delta})
}

// Scan builds a single-step Program selecting documents by key range.
func Scan(req ScanRequest) Program[[]Document] {
	return Step[[]Document](ScanKeysOp{Req: req})
}
