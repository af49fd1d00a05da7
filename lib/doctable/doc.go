// Package doctable defines the storage engine contract beneath the
// docstore interpreters: a versioned document table with optimistic
// concurrency primitives, integer counters, ordered key range scans and
// binary snapshot persistence.
//
// The package separates the WHAT (the IDocTable interface plus the Status
// outcome codes every engine must produce) from the HOW (concrete engines
// such as the vtable implementation in the vtable subpackage). Both the
// in-memory interpreter and the replicated state machine of the
// distributed interpreter operate on an IDocTable obtained through a
// Factory, which is what keeps their observable semantics identical.
package doctable
