package internal

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/doctable"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name: "Command with key and value",
			command: Command{
				Type:            CommandTUpdate,
				Key:             "testkey",
				ExpectedVersion: 3,
				Value:           []byte("testvalue"),
			},
			expected: 1 + 8 + 8 + 4 + 7 + 9, // Type + ExpectedVersion + Delta + KeyLen + Key + Value
		},
		{
			name: "Command with empty key and value",
			command: Command{
				Type:  CommandTCreate,
				Key:   "",
				Value: []byte("testvalue"),
			},
			expected: 1 + 8 + 8 + 4 + 0 + 9, // Type + ExpectedVersion + Delta + KeyLen + Key + Value
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Create command with value",
			command: Command{
				Type:  CommandTCreate,
				Key:   "testkey",
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Update command with version precondition",
			command: Command{
				Type:            CommandTUpdate,
				Key:             "testkey",
				ExpectedVersion: 42,
				Value:           []byte("testvalue"),
			},
		},
		{
			name: "Remove command without value",
			command: Command{
				Type:  CommandTRemove,
				Key:   "testkey",
				Value: nil,
			},
		},
		{
			name: "CounterAdd command with negative delta",
			command: Command{
				Type:  CommandTCounterAdd,
				Key:   "counter",
				Delta: -17,
			},
		},
		{
			name: "Command with empty key",
			command: Command{
				Type:  CommandTCreate,
				Key:   "",
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Command with empty value",
			command: Command{
				Type:  CommandTCreate,
				Key:   "testkey",
				Value: []byte{},
			},
		},
		{
			name: "Command with max version",
			command: Command{
				Type:            CommandTUpdate,
				Key:             "testkey",
				ExpectedVersion: 18446744073709551615, // Max uint64
				Value:           []byte("testvalue"),
			},
		},
		{
			name: "Command with binary value",
			command: Command{
				Type:  CommandTCreate,
				Key:   "binary",
				Value: []byte{0, 1, 2, 3, 254, 255},
			},
		},
		{
			name: "Command with Unicode key",
			command: Command{
				Type:  CommandTCreate,
				Key:   "你好世界", // Hello World in Chinese
				Value: []byte("unicode test"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Serialize
			data := tt.command.Serialize()

			// Deserialize into a new command
			var newCommand Command
			err := newCommand.Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			// Compare original and deserialized command
			if newCommand.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", newCommand.Type, tt.command.Type)
			}
			if newCommand.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", newCommand.Key, tt.command.Key)
			}
			if newCommand.ExpectedVersion != tt.command.ExpectedVersion {
				t.Errorf("ExpectedVersion mismatch: got %v, want %v", newCommand.ExpectedVersion, tt.command.ExpectedVersion)
			}
			if newCommand.Delta != tt.command.Delta {
				t.Errorf("Delta mismatch: got %v, want %v", newCommand.Delta, tt.command.Delta)
			}

			// Value comparison handling nil case
			if tt.command.Value == nil {
				if newCommand.Value != nil && len(newCommand.Value) != 0 {
					t.Errorf("Value should be nil or empty, got %v", newCommand.Value)
				}
			} else if !bytes.Equal(newCommand.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", newCommand.Value, tt.command.Value)
			}

			// Verify that SizeBytes matches the serialized data length
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectedErr: "data too short for command",
		},
		{
			name:        "Data too short (less than header)",
			data:        []byte{1, 2, 3, 4, 5},
			expectedErr: "data too short for command",
		},
		{
			name: "Invalid key length",
			data: func() []byte {
				data := make([]byte, 21) // Just the header
				data[0] = byte(CommandTCreate)
				// Set key length to a large value that exceeds the data
				binary.BigEndian.PutUint32(data[17:21], 1000)
				return data
			}(),
			expectedErr: "data too short for key of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)

			// Check if we got the expected error
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{
		Type:            CommandTUpdate,
		Key:             "testkey",
		ExpectedVersion: 12345,
		Delta:           67890,
		Value:           []byte("testvalue"),
	}

	// Manually create the expected byte array
	expected := make([]byte, cmd.SizeBytes())
	// Type
	expected[0] = byte(CommandTUpdate)
	// ExpectedVersion
	binary.BigEndian.PutUint64(expected[1:9], 12345)
	// Delta
	binary.BigEndian.PutUint64(expected[9:17], 67890)
	// Key length
	binary.BigEndian.PutUint32(expected[17:21], 7) // "testkey" length
	// Key
	copy(expected[21:28], []byte("testkey"))
	// Value
	copy(expected[28:], []byte("testvalue"))

	// Serialize and compare
	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestStatusToResultCode checks the table status mapping
func TestStatusToResultCode(t *testing.T) {
	cases := map[doctable.Status]ResultCode{
		doctable.StatusOK:              ResultOK,
		doctable.StatusNotFound:        ResultNotFound,
		doctable.StatusExists:          ResultExists,
		doctable.StatusVersionMismatch: ResultVersionMismatch,
	}
	for status, want := range cases {
		if got := StatusToResultCode(status); got != want {
			t.Errorf("StatusToResultCode(%v) = %v, want %v", status, got, want)
		}
	}
}
