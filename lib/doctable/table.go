package doctable

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplVTable Implementation = "vtable"
)

// Status is the outcome of a single table operation.
type Status uint64

const (
	StatusOK              Status = iota // operation applied
	StatusNotFound                      // no entry for the key
	StatusExists                        // insert target already present
	StatusVersionMismatch               // replace precondition version stale
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NotFound"
	case StatusExists:
		return "Exists"
	case StatusVersionMismatch:
		return "VersionMismatch"
	default:
		return "Unknown"
	}
}

// Entry is one versioned document. Version starts at 0 on insert and is
// incremented by every successful replace of the same key.
type Entry struct {
	Version uint64
	Value   []byte
}

// ScanOp is the key comparison operator of a range scan.
type ScanOp uint8

const (
	ScanEQ ScanOp = iota
	ScanGT
	ScanLT
	ScanGTE
	ScanLTE
)

// Matches reports whether key satisfies `key <op> pivot`.
func (op ScanOp) Matches(key, pivot string) bool {
	switch op {
	case ScanEQ:
		return key == pivot
	case ScanGT:
		return key > pivot
	case ScanLT:
		return key < pivot
	case ScanGTE:
		return key >= pivot
	case ScanLTE:
		return key <= pivot
	default:
		return false
	}
}

// ScanQuery selects all entries whose key matches `key <Op> Pivot`,
// ordered ascending by key, then skips Offset rows and returns at most
// Limit rows. Limit <= 0 means no limit.
type ScanQuery struct {
	Op     ScanOp
	Pivot  string
	Limit  int
	Offset int
}

// ScanEntry is one row of a scan result.
type ScanEntry struct {
	Key   string
	Entry Entry
}

// TableInfo describes a table instance. Size values are estimates.
type TableInfo struct {
	TableType    Implementation `json:"table_type"`
	DocCount     int            `json:"doc_count"`
	CounterCount int            `json:"counter_count"`
	EstSizeBytes int            `json:"est_size_bytes"`
	Metadata     interface{}    `json:"metadata"`
}

// Factory creates a new table instance. This is used to abstract the
// creation of the table from the interpreter implementations.
type Factory func() IDocTable

// --------------------------------------------------------------------------
// Table Interface
// --------------------------------------------------------------------------

// IDocTable is a versioned document table: a mapping from key to
// (version, value) plus a separate mapping from key to an integer counter.
// It is the storage engine shared by the in-memory interpreter and the
// replicated state machine, which is what guarantees that both produce the
// same Status for every operation given equivalent preconditions.
//
// All methods are safe for concurrent use unless noted otherwise.
type IDocTable interface {

	// --------------------------------------------------------------------------
	// Document Operations
	// --------------------------------------------------------------------------

	// Get retrieves the entry for a key.
	// Returns StatusNotFound if no entry exists.
	Get(key string) (Entry, Status)

	// Insert stores a new entry with version 0.
	// Returns StatusExists (and the stored entry untouched) if the key is
	// already present.
	Insert(key string, value []byte) (Entry, Status)

	// Replace overwrites the entry only if its current version equals
	// expected, assigning version expected+1. Returns StatusNotFound if no
	// entry exists and StatusVersionMismatch if the version is stale.
	Replace(key string, value []byte, expected uint64) (Entry, Status)

	// Remove deletes the entry for a key.
	// Returns StatusNotFound if no entry exists.
	Remove(key string) Status

	// Scan returns all matching entries in ascending key order, bounded by
	// the query's limit and offset.
	Scan(q ScanQuery) []ScanEntry

	// --------------------------------------------------------------------------
	// Counter Operations
	// --------------------------------------------------------------------------

	// CounterGet reads a counter. An absent counter reads as zero.
	CounterGet(key string) int64

	// CounterAdd atomically adds delta to a counter and returns the new
	// total. An absent counter starts at zero (creation on first use).
	CounterAdd(key string, delta int64) int64

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the table to the provided writer.
	Save(w io.Writer) error

	// Load restores the table state from the provided reader, replacing
	// all current contents. Not safe for concurrent use with other methods.
	Load(r io.Reader) error

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// Info returns information about the table.
	Info() TableInfo

	// Close releases any resources held by the table.
	Close() error
}
