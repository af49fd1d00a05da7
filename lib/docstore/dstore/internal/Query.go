package internal

import "github.com/ValentinKolb/dDoc/lib/doctable"

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGetDoc       QueryType = iota // Retrieve a document by key.
	QueryTGetCounter                    // Read a counter value.
	QueryTScan                          // Select documents by a key range predicate.
	QueryTGetTableInfo                  // Retrieve metadata about the table underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGetDoc:
		return "GetDoc"
	case QueryTGetCounter:
		return "GetCounter"
	case QueryTScan:
		return "Scan"
	case QueryTGetTableInfo:
		return "GetTableInfo"
	default:
		return "Unknown"
	}
}

// PayloadKindJSON is the only payload content kind produced by the state
// machine. The store client validates this tag on every scan row and
// rejects rows carrying anything else as a decoding fault.
const PayloadKindJSON = "json"

// Query defines the structure for lookup requests (read-only) sent via
// SyncRead or StaleRead.
type Query struct {
	Type QueryType          // The type of Query to perform.
	Key  string             // The key for the Query (empty for some queries).
	Scan doctable.ScanQuery // The range predicate (only used by QueryTScan).
}

// DocResult is the result of a QueryTGetDoc operation.
type DocResult struct {
	Ok      bool
	Version uint64
	Value   []byte
}

// ScanRow is one row of a QueryTScan result. The Kind tag names the
// payload content encoding so a consumer can reject rows it cannot decode.
type ScanRow struct {
	Key     string
	Version uint64
	Kind    string
	Value   []byte
}

// ScanResult is the result of a QueryTScan operation.
// All other query results are primitive types or predefined structs
// (int64, doctable.TableInfo).
type ScanResult struct {
	Rows []ScanRow
}
