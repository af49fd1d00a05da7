// Package memstore provides the in-memory interpreter for docstore
// Programs. It maps every operation variant directly onto a local
// doctable.IDocTable and translates table statuses into the shared error
// taxonomy, reproducing the exact error kinds of the distributed
// interpreter for every operation given equivalent preconditions.
//
// Beyond the plain interpreter contract the package offers an
// explicit-table run mode (RunWithTable / NewMemoryStoreWithTable) that
// lets a test seed a known starting state and inspect the resulting state
// after running a Program. This is deliberately absent from the network
// interpreter contract, whose backend state is not introspectable.
package memstore
