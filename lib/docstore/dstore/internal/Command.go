package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dDoc/lib/doctable"
)

// CommandType defines the possible write operations for the state machine.
type CommandType uint8

const (
	CommandTCreate     CommandType = iota // Insert a document if the key is absent.
	CommandTUpdate                        // Replace a document under a version precondition.
	CommandTRemove                        // Delete a document.
	CommandTCounterAdd                    // Add a delta to a counter, creating it on first use.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTCreate:
		return "Create"
	case CommandTUpdate:
		return "Update"
	case CommandTRemove:
		return "Remove"
	case CommandTCounterAdd:
		return "CounterAdd"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// --------------------------------------------------------------------------
// Result Codes
// --------------------------------------------------------------------------

// ResultCode is the outcome of a command, carried in sm.Result.Value across
// the consensus boundary. The first four codes mirror doctable.Status so
// the state machine can pass table outcomes through unchanged.
type ResultCode uint64

const (
	ResultOK              ResultCode = iota // command applied
	ResultNotFound                          // no document for the key
	ResultExists                            // create target already present
	ResultVersionMismatch                   // update precondition version stale
	ResultInvalidCommand                    // command could not be decoded or is unknown
)

func (rc ResultCode) String() string {
	switch rc {
	case ResultOK:
		return "OK"
	case ResultNotFound:
		return "NotFound"
	case ResultExists:
		return "Exists"
	case ResultVersionMismatch:
		return "VersionMismatch"
	case ResultInvalidCommand:
		return "InvalidCommand"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(rc))
	}
}

// StatusToResultCode converts a table status into the corresponding wire code.
func StatusToResultCode(s doctable.Status) ResultCode {
	switch s {
	case doctable.StatusOK:
		return ResultOK
	case doctable.StatusNotFound:
		return ResultNotFound
	case doctable.StatusExists:
		return ResultExists
	case doctable.StatusVersionMismatch:
		return ResultVersionMismatch
	default:
		return ResultInvalidCommand
	}
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// Command represents a command to be executed by the state machine (a single
// entry in the raft log).
type Command struct {
	Type            CommandType
	Key             string
	ExpectedVersion uint64 // version precondition, only used by Update
	Delta           int64  // counter delta, only used by CounterAdd
	Value           []byte
}

// SizeBytes returns the exact number of bytes needed to serialize this command.
func (command *Command) SizeBytes() int {
	size := 1 + 8 + 8 + 4 + len(command.Key) // Type + ExpectedVersion + Delta + KeyLen + Key
	if command.Value != nil {
		size += len(command.Value)
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 8 bytes for the expected version,
// 8 bytes for the counter delta (two's complement),
// 4 bytes for key length (big endian),
// N bytes for key data,
// M bytes for value data (optional)
func (command *Command) Serialize() []byte {
	totalSize := command.SizeBytes()

	result := make([]byte, totalSize)

	// Set operation type
	result[0] = byte(command.Type)

	// Set expected version and delta
	binary.BigEndian.PutUint64(result[1:9], command.ExpectedVersion)
	binary.BigEndian.PutUint64(result[9:17], uint64(command.Delta))

	// Set key length (4 bytes, big endian)
	binary.BigEndian.PutUint32(result[17:21], uint32(len(command.Key)))

	// Copy key bytes
	keyBytes := []byte(command.Key)
	copy(result[21:21+len(keyBytes)], keyBytes)

	// Copy value if present
	if command.Value != nil {
		copy(result[21+len(keyBytes):], command.Value)
	}

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	// Minimum size: 1 (Type) + 8 (ExpectedVersion) + 8 (Delta) + 4 (KeyLen) = 21 bytes
	if len(data) < 21 {
		return fmt.Errorf("data too short for command")
	}

	// Extract operation type
	command.Type = CommandType(data[0])

	// Extract expected version and delta
	command.ExpectedVersion = binary.BigEndian.Uint64(data[1:9])
	command.Delta = int64(binary.BigEndian.Uint64(data[9:17]))

	// Extract key length
	keyLen := binary.BigEndian.Uint32(data[17:21])

	// Validate key length
	if len(data) < 21+int(keyLen) {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}

	// Extract key
	command.Key = string(data[21 : 21+keyLen])

	// Extract value if present
	if len(data) > 21+int(keyLen) {
		valueLen := len(data) - (21 + int(keyLen))
		// Reuse existing buffer if possible to reduce allocations
		if command.Value == nil || cap(command.Value) < valueLen {
			command.Value = make([]byte, valueLen)
		} else {
			command.Value = command.Value[:valueLen]
		}
		copy(command.Value, data[21+int(keyLen):])
	} else {
		command.Value = nil
	}

	return nil
}
