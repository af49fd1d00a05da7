// Package docstore provides a composable description language for document
// store operations together with a pluggable execution contract. Callers
// build a Program - an immutable script of typed operations - without
// committing to a backend; an interpreter later executes the script against
// a real networked document database or an in-memory double with identical
// observable semantics.
//
// The package focuses on:
//   - A closed operation algebra (get, create, update, remove, counter
//     read/increment, key range scan) expressed as immutable values
//   - Program composition with short-circuit-on-error sequencing
//   - A unified interpreter interface (IInterpreter) so the same Program
//     runs unchanged against different backends
//   - A shared error taxonomy (Error with typed codes) that every
//     interpreter must reproduce exactly
//
// Key Components:
//
//   - Program[T]: An inert, reusable description of a sequence of document
//     store operations. Constructing a Program performs no I/O; only Run
//     (or RunAsync) executes it. Programs compose via AndThen and Map and
//     may be executed any number of times against different interpreters.
//
//   - IInterpreter Interface: The execution contract mapping each operation
//     variant to a backend call. Since every variant is a method of the
//     interface, an interpreter that omits a variant does not compile -
//     the missing-variant defect is a build-time error, never a runtime one.
//
//   - Error System: A structured error type with typed codes (not found,
//     already exists, commit version mismatch, decoding fault, general).
//     Every operation failure is captured as an error value; no public
//     entry point panics as part of its normal contract.
//
// Implementations:
//
//	The repository includes two interpreter implementations plus a remote
//	adapter:
//
//	- Memory Store (memstore): A synchronous, single-process interpreter
//	  backed by a versioned doctable.IDocTable. It additionally supports an
//	  explicit-table run mode for seeding and inspecting state in tests.
//	  Available in the "github.com/ValentinKolb/dDoc/lib/docstore/memstore" package.
//
//	- Distributed Store (dstore): An interpreter built on the Dragonboat
//	  RAFT consensus library. Writes are proposed through the replicated
//	  log, reads are linearizable by default and range scans may opt into
//	  stale reads for lower latency.
//	  Available in the "github.com/ValentinKolb/dDoc/lib/docstore/dstore" package.
//
//	- RPC Client (rpc/client): An IInterpreter that forwards operations to
//	  a remote ddoc server over a pluggable transport.
//
// Optimistic concurrency is the sole cross-caller coordination mechanism:
// updates carry the commit version the caller last observed, and the
// backend rejects stale updates with a version mismatch error. The package
// never takes locks and never retries on the caller's behalf.
package docstore
