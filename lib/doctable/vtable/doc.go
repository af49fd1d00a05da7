// Package vtable implements the doctable.IDocTable interface with two
// concurrent hash maps (documents and counters) from the xsync library.
// Per-key atomicity, including the compare-and-swap version check of
// Replace, is achieved through the maps' Compute primitive rather than
// external locking, so all operations stay lock-free on the caller side.
//
// The engine also provides binary snapshot persistence (Save/Load) with a
// magic-number/version header, used by the replicated state machine of the
// distributed interpreter for raft snapshots.
package vtable
