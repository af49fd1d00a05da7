// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the distributed state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
// The package consists of two main components:
//
//   - Command System: Defines write operations (Create, Update, Remove, CounterAdd)
//     that modify the state of the table. Commands are serialized and proposed to the
//     RAFT cluster, executed on the state machine, and produce results that are
//     returned to the client. The Command structure includes efficient binary
//     serialization.
//
//   - Query System: Defines read operations (GetDoc, GetCounter, Scan, GetTableInfo)
//     that retrieve data from the table without modifying its state. Queries are
//     executed locally on the statemachine and therefore do not require serialization.
//
// Command Format:
//
//	Commands are serialized into a binary format with the following structure:
//
//	- 1 byte: Command type (Create, Update, Remove, CounterAdd)
//	- 8 bytes: Expected version (uint64, big endian, only meaningful for Update)
//	- 8 bytes: Counter delta (int64 as two's complement uint64, big endian)
//	- 4 bytes: Key length (uint32, big endian)
//	- N bytes: Key data (string as byte array)
//	- M bytes: Value data (optional, only present for Create/Update)
//
//	This format ensures efficient storage in the RAFT log while providing all
//	necessary information for the operation.
//
// Result Codes:
//
//	Every command produces a ResultCode in sm.Result.Value. The codes mirror
//	doctable.Status so that the outcome of the table operation survives the
//	consensus boundary unchanged and can be mapped onto the shared error
//	taxonomy on the client side.
//
// Scan Rows:
//
//	Scan results carry a Kind tag per row naming the payload content encoding.
//	The store client validates the tag and reports rows with an unknown tag as
//	decoding faults instead of passing opaque bytes to the caller.
//
// Thread Safety:
//
//	The types in this package are not thread-safe and should not be shared
//	across goroutines without external synchronization. However, this is not
//	typically an issue as the RAFT protocol ensures sequential processing of
//	commands on the state machine.
package internal
