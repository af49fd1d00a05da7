package docstore

import "context"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IInterpreter is the execution contract for the operation algebra. Each
// method corresponds to exactly one operation variant; because the set of
// variants is the method set of this interface, an interpreter that omits
// a variant is rejected by the compiler.
//
// All methods are safe for concurrent use by multiple in-flight Programs
// sharing the same interpreter instance. Within a single Program, the
// dispatch engine (Program.Run) calls the methods strictly sequentially.
//
// Every failure is reported as a *Error (see errors.go); implementations
// must never let a backend-specific error type escape.
type IInterpreter interface {
	// GetDoc fetches the document stored under key.
	// A missing key fails with ErrCNotFound.
	GetDoc(ctx context.Context, key Key) (Document, error)

	// CreateDoc inserts a new document if the key is absent. The returned
	// Document carries the initial commit version assigned by the store.
	// An existing key fails with ErrCExists.
	CreateDoc(ctx context.Context, key Key, value RawValue) (Document, error)

	// UpdateDoc replaces the document only if the stored commit version
	// equals expected. On success the returned Document carries the new
	// version assigned by the store, which is never equal to expected.
	// A missing key fails with ErrCNotFound, a stale version with
	// ErrCVersionMismatch.
	UpdateDoc(ctx context.Context, key Key, value RawValue, expected CommitVersion) (Document, error)

	// RemoveKey deletes the document stored under key.
	// A missing key fails with ErrCNotFound.
	RemoveKey(ctx context.Context, key Key) error

	// GetCounter reads the integer counter stored under key.
	// An absent counter reads as zero, not as an error.
	GetCounter(ctx context.Context, key Key) (int64, error)

	// IncrementCounter atomically adds delta to the counter stored under
	// key and returns the new total. An absent counter starts at zero, so
	// the first increment by delta yields delta (creation on first use).
	IncrementCounter(ctx context.Context, key Key, delta int64) (int64, error)

	// ScanKeys selects all documents whose key satisfies the request
	// predicate, ordered ascending by key, bounded by limit and offset and
	// executed under the requested consistency mode. Malformed row
	// metadata in the backend response fails with ErrCDecoding.
	ScanKeys(ctx context.Context, req ScanRequest) ([]Document, error)
}
