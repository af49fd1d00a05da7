// Package testing provides a shared behavioral test suite for
// docstore.IInterpreter implementations. The suite encodes the observable
// contract of the operation algebra - round trips, optimistic concurrency,
// missing-key laws, counter creation on first use, scan ordering and
// paging, and short-circuit sequencing - so that every interpreter proves
// the same success and error semantics by passing the identical tests.
package testing
