package docstore

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Operation Algebra
// --------------------------------------------------------------------------

// OpKind identifies an operation variant.
type OpKind uint8

const (
	OpGetDoc OpKind = iota
	OpCreateDoc
	OpUpdateDoc
	OpRemoveKey
	OpGetCounter
	OpIncrementCounter
	OpScanKeys
)

func (k OpKind) String() string {
	switch k {
	case OpGetDoc:
		return "GetDoc"
	case OpCreateDoc:
		return "CreateDoc"
	case OpUpdateDoc:
		return "UpdateDoc"
	case OpRemoveKey:
		return "RemoveKey"
	case OpGetCounter:
		return "GetCounter"
	case OpIncrementCounter:
		return "IncrementCounter"
	case OpScanKeys:
		return "ScanKeys"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Operation is one member of the closed operation algebra. The set is
// sealed: only the variants in this file implement the unexported apply
// method, and apply dispatches onto the IInterpreter method set so that
// every interpreter handles every variant by construction.
type Operation interface {
	fmt.Stringer
	Kind() OpKind

	// apply executes the single operation against an interpreter and
	// returns its untyped success value.
	apply(ctx context.Context, it IInterpreter) (any, error)
}

// --------------------------------------------------------------------------
// Variants
// --------------------------------------------------------------------------

// GetDocOp fetches a document by key.
type GetDocOp struct{ Key Key }

func (op GetDocOp) Kind() OpKind   { return OpGetDoc }
func (op GetDocOp) String() string { return fmt.Sprintf("GetDoc(%q)", string(op.Key)) }
func (op GetDocOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.GetDoc(ctx, op.Key)
}

// CreateDocOp inserts a document if the key is absent.
type CreateDocOp struct {
	Key   Key
	Value RawValue
}

func (op CreateDocOp) Kind() OpKind   { return OpCreateDoc }
func (op CreateDocOp) String() string { return fmt.Sprintf("CreateDoc(%q)", string(op.Key)) }
func (op CreateDocOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.CreateDoc(ctx, op.Key, op.Value)
}

// UpdateDocOp replaces a document under an optimistic concurrency
// precondition.
type UpdateDocOp struct {
	Key      Key
	Value    RawValue
	Expected CommitVersion
}

func (op UpdateDocOp) Kind() OpKind { return OpUpdateDoc }
func (op UpdateDocOp) String() string {
	return fmt.Sprintf("UpdateDoc(%q, v%d)", string(op.Key), uint64(op.Expected))
}
func (op UpdateDocOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.UpdateDoc(ctx, op.Key, op.Value, op.Expected)
}

// RemoveKeyOp deletes a document by key.
type RemoveKeyOp struct{ Key Key }

func (op RemoveKeyOp) Kind() OpKind   { return OpRemoveKey }
func (op RemoveKeyOp) String() string { return fmt.Sprintf("RemoveKey(%q)", string(op.Key)) }
func (op RemoveKeyOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return Unit{}, it.RemoveKey(ctx, op.Key)
}

// GetCounterOp reads an integer counter.
type GetCounterOp struct{ Key Key }

func (op GetCounterOp) Kind() OpKind   { return OpGetCounter }
func (op GetCounterOp) String() string { return fmt.Sprintf("GetCounter(%q)", string(op.Key)) }
func (op GetCounterOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.GetCounter(ctx, op.Key)
}

// IncrementCounterOp atomically adds a delta to an integer counter.
type IncrementCounterOp struct {
	Key   Key
	Delta int64
}

func (op IncrementCounterOp) Kind() OpKind { return OpIncrementCounter }
func (op IncrementCounterOp) String() string {
	return fmt.Sprintf("IncrementCounter(%q, %+d)", string(op.Key), op.Delta)
}
func (op IncrementCounterOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.IncrementCounter(ctx, op.Key, op.Delta)
}

// ScanKeysOp selects documents by a key range predicate.
type ScanKeysOp struct{ Req ScanRequest }

func (op ScanKeysOp) Kind() OpKind   { return OpScanKeys }
func (op ScanKeysOp) String() string { return fmt.Sprintf("ScanKeys(%s)", op.Req) }
func (op ScanKeysOp) apply(ctx context.Context, it IInterpreter) (any, error) {
	return it.ScanKeys(ctx, op.Req)
}
