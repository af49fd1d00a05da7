package docstore

import "fmt"

// --------------------------------------------------------------------------
// Value Types
// --------------------------------------------------------------------------

// Key identifies exactly one document within a single logical bucket.
type Key string

// RawValue is an opaque, already-serialized document payload. The core
// never parses or validates its contents; it is passed through verbatim.
type RawValue []byte

// CommitVersion is an opaque version token assigned by the store on every
// successful write. It is used as an optimistic concurrency precondition on
// updates. Tokens are only meaningful for the key they were issued for.
type CommitVersion uint64

// Document is the result of any successful read or write: the key, the
// commit version the store assigned, and the raw payload. Documents are
// constructed fresh per operation result and never mutated afterwards.
type Document struct {
	Key     Key
	Version CommitVersion
	Value   RawValue
}

// Unit is the success value of operations that produce no data (RemoveKey).
type Unit struct{}

// --------------------------------------------------------------------------
// Scan Types
// --------------------------------------------------------------------------

// Comparison is the operator used when matching keys in a range scan.
type Comparison uint8

const (
	CmpEQ  Comparison = iota // key == pivot
	CmpGT                    // key > pivot
	CmpLT                    // key < pivot
	CmpGTE                   // key >= pivot
	CmpLTE                   // key <= pivot
)

func (c Comparison) String() string {
	switch c {
	case CmpEQ:
		return "=="
	case CmpGT:
		return ">"
	case CmpLT:
		return "<"
	case CmpGTE:
		return ">="
	case CmpLTE:
		return "<="
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// Consistency selects whether a scan may read from a possibly-stale index
// (low latency) or must read from a fully up-to-date one (strict).
type Consistency uint8

const (
	AllowStale        Consistency = iota // scan may return stale rows
	EnsureConsistency                    // scan must reflect all completed writes
)

func (c Consistency) String() string {
	switch c {
	case AllowStale:
		return "AllowStale"
	case EnsureConsistency:
		return "EnsureConsistency"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ScanRequest bundles the parameters of a key range scan: all keys matching
// `key <Cmp> Pivot` are selected in ascending key order, then Offset rows
// are skipped and at most Limit rows are returned.
type ScanRequest struct {
	Cmp         Comparison
	Pivot       Key
	Limit       int
	Offset      int
	Consistency Consistency
}

func (s ScanRequest) String() string {
	return fmt.Sprintf("key %s %q limit=%d offset=%d (%s)", s.Cmp, string(s.Pivot), s.Limit, s.Offset, s.Consistency)
}
