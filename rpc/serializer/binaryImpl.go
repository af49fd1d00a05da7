package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dDoc/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present. Two flag bytes
// are used; boolean fields are carried in the flag bits themselves.
const (
	// first flags byte
	hasKey     byte = 1 << 0
	hasValue   byte = 1 << 1
	hasVersion byte = 1 << 2
	hasCount   byte = 1 << 3
	hasCmp     byte = 1 << 4
	hasLimit   byte = 1 << 5
	hasOffset  byte = 1 << 6
	isStale    byte = 1 << 7

	// second flags byte
	hasDocs    byte = 1 << 0
	hasErrCode byte = 1 << 1
	hasErr     byte = 1 << 2
	hasMeta    byte = 1 << 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flag bytes
	var flags1, flags2 byte

	// Set position for writing
	pos := 3 // Start after MsgType and the two flag bytes

	// Handle Key
	if msg.Key != "" {
		flags1 |= hasKey
		pos = writeBytes(result, pos, []byte(msg.Key))
	}

	// Handle Value
	if msg.Value != nil {
		flags1 |= hasValue
		pos = writeBytes(result, pos, msg.Value)
	}

	// Handle Version
	if msg.Version > 0 {
		flags1 |= hasVersion
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Version)
		pos += 8
	}

	// Handle Count (two's complement, so negative deltas survive)
	if msg.Count != 0 {
		flags1 |= hasCount
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Count))
		pos += 8
	}

	// Handle Cmp
	if msg.Cmp != "" {
		flags1 |= hasCmp
		pos = writeBytes(result, pos, []byte(msg.Cmp))
	}

	// Handle Limit
	if msg.Limit != 0 {
		flags1 |= hasLimit
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(int32(msg.Limit)))
		pos += 4
	}

	// Handle Offset
	if msg.Offset != 0 {
		flags1 |= hasOffset
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(int32(msg.Offset)))
		pos += 4
	}

	// Handle Stale (flag bit only)
	if msg.Stale {
		flags1 |= isStale
	}

	// Handle Docs
	if msg.Docs != nil {
		flags2 |= hasDocs
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Docs)))
		pos += 4
		for _, row := range msg.Docs {
			pos = writeBytes(result, pos, []byte(row.Key))
			binary.BigEndian.PutUint64(result[pos:pos+8], row.Version)
			pos += 8
			pos = writeBytes(result, pos, []byte(row.Kind))
			pos = writeBytes(result, pos, row.Value)
		}
	}

	// Handle ErrCode
	if msg.ErrCode > 0 {
		flags2 |= hasErrCode
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.ErrCode)
		pos += 8
	}

	// Handle Err
	if msg.Err != "" {
		flags2 |= hasErr
		pos = writeBytes(result, pos, []byte(msg.Err))
	}

	// Handle Meta
	if msg.Meta != nil {
		flags2 |= hasMeta
		pos = writeBytes(result, pos, msg.Meta)
	}

	// Set flag bytes after knowing which fields are present
	result[1] = flags1
	result[2] = flags2

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + two flag bytes)
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type and flags
	msg.MsgType = common.MessageType(data[0])
	flags1 := data[1]
	flags2 := data[2]

	// Initialize read position
	pos := 3
	var err error
	var raw []byte

	// Read Key if present
	if flags1&hasKey != 0 {
		if raw, pos, err = readBytes(data, pos, "key"); err != nil {
			return err
		}
		msg.Key = string(raw)
	} else {
		msg.Key = ""
	}

	// Read Value if present
	if flags1&hasValue != 0 {
		if raw, pos, err = readBytes(data, pos, "value"); err != nil {
			return err
		}
		msg.Value = make([]byte, len(raw))
		copy(msg.Value, raw)
	} else {
		msg.Value = nil
	}

	// Read Version if present
	if flags1&hasVersion != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for version")
		}
		msg.Version = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Version = 0
	}

	// Read Count if present
	if flags1&hasCount != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for count")
		}
		msg.Count = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.Count = 0
	}

	// Read Cmp if present
	if flags1&hasCmp != 0 {
		if raw, pos, err = readBytes(data, pos, "cmp"); err != nil {
			return err
		}
		msg.Cmp = string(raw)
	} else {
		msg.Cmp = ""
	}

	// Read Limit if present
	if flags1&hasLimit != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for limit")
		}
		msg.Limit = int(int32(binary.BigEndian.Uint32(data[pos : pos+4])))
		pos += 4
	} else {
		msg.Limit = 0
	}

	// Read Offset if present
	if flags1&hasOffset != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for offset")
		}
		msg.Offset = int(int32(binary.BigEndian.Uint32(data[pos : pos+4])))
		pos += 4
	} else {
		msg.Offset = 0
	}

	// Read Stale flag
	msg.Stale = flags1&isStale != 0

	// Read Docs if present
	if flags2&hasDocs != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for docs count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		msg.Docs = make([]common.DocRow, 0, count)
		for i := uint32(0); i < count; i++ {
			var row common.DocRow
			if raw, pos, err = readBytes(data, pos, "doc key"); err != nil {
				return err
			}
			row.Key = string(raw)
			if pos+8 > len(data) {
				return fmt.Errorf("data too short for doc version")
			}
			row.Version = binary.BigEndian.Uint64(data[pos : pos+8])
			pos += 8
			if raw, pos, err = readBytes(data, pos, "doc kind"); err != nil {
				return err
			}
			row.Kind = string(raw)
			if raw, pos, err = readBytes(data, pos, "doc value"); err != nil {
				return err
			}
			row.Value = make([]byte, len(raw))
			copy(row.Value, raw)
			msg.Docs = append(msg.Docs, row)
		}
	} else {
		msg.Docs = nil
	}

	// Read ErrCode if present
	if flags2&hasErrCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for error code")
		}
		msg.ErrCode = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.ErrCode = 0
	}

	// Read Err if present
	if flags2&hasErr != 0 {
		if raw, pos, err = readBytes(data, pos, "error"); err != nil {
			return err
		}
		msg.Err = string(raw)
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags2&hasMeta != 0 {
		if raw, pos, err = readBytes(data, pos, "meta"); err != nil {
			return err
		}
		msg.Meta = make([]byte, len(raw))
		copy(msg.Meta, raw)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeBytes writes a length-prefixed byte section and returns the new position
func writeBytes(dst []byte, pos int, b []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(b)))
	pos += 4
	copy(dst[pos:pos+len(b)], b)
	return pos + len(b)
}

// readBytes reads a length-prefixed byte section and returns it together with
// the new position
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	length := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(length) > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+int(length)], pos + int(length), nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := 3

	// Add sizes for fields that require length encoding
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Version > 0 {
		size += 8
	}
	if msg.Count != 0 {
		size += 8
	}
	if msg.Cmp != "" {
		size += 4 + len(msg.Cmp)
	}
	if msg.Limit != 0 {
		size += 4
	}
	if msg.Offset != 0 {
		size += 4
	}
	if msg.Docs != nil {
		size += 4 // row count
		for _, row := range msg.Docs {
			size += 4 + len(row.Key) + 8 + 4 + len(row.Kind) + 4 + len(row.Value)
		}
	}
	if msg.ErrCode > 0 {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}
