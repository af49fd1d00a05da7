// Package testing provides a shared conformance test suite for
// doctable.IDocTable implementations. Engines register themselves with a
// factory function; the suite then verifies version assignment,
// compare-and-swap semantics, counter behavior, scan ordering and paging,
// and snapshot persistence. Interpreter equivalence depends on every
// engine passing this suite unchanged.
package testing
