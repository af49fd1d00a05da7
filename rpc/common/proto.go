package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dDoc/lib/docstore"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// PayloadKindJSON tags scan rows whose payload is a JSON document. It is
// currently the only kind the client accepts.
const PayloadKindJSON = "json"

// DocRow is one document row of a scan response. The Kind tag names the
// payload content encoding so the client can reject rows it cannot decode.
type DocRow struct {
	Key     string `json:"key"`
	Version uint64 `json:"version"`
	Kind    string `json:"kind"`
	Value   []byte `json:"value"`
}

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key     string `json:"key,omitempty"`     // Used for: all document and counter operations
	Value   []byte `json:"value,omitempty"`   // Used for: Create, Update (request), Get, Create, Update (response), Info (response)
	Version uint64 `json:"version,omitempty"` // Used for: Update request (expected version), document responses (commit version)
	Count   int64  `json:"count,omitempty"`   // Used for: CntAdd request (delta), counter responses (total)

	// Scan fields
	Cmp    string   `json:"cmp,omitempty"`    // Used for: Scan request (comparison operator)
	Limit  int      `json:"limit,omitempty"`  // Used for: Scan request
	Offset int      `json:"offset,omitempty"` // Used for: Scan request
	Stale  bool     `json:"stale,omitempty"`  // Used for: Scan request (relaxed consistency)
	Docs   []DocRow `json:"docs,omitempty"`   // Used for: Scan response

	// Response only fields
	ErrCode uint64 `json:"err_code,omitempty"` // docstore.ErrCode of the failure, 0 on success
	Err     string `json:"err,omitempty"`      // Error message for faults without a dedicated code

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Error Mapping
// --------------------------------------------------------------------------

// SetError fills the response error fields from an error value. The error
// code survives the wire so the client can rebuild the exact error kind.
func (m *Message) SetError(err error) {
	if err == nil {
		return
	}
	if code := docstore.CodeOf(err); code != 0 {
		m.ErrCode = uint64(code)
	} else {
		m.ErrCode = uint64(docstore.ErrCGeneral)
	}
	m.Err = err.Error()
}

// DecodeError rebuilds the error value of a response message. Returns nil
// if the message carries no error.
func (m *Message) DecodeError() error {
	if m.ErrCode == 0 && m.Err == "" {
		return nil
	}
	key := docstore.Key(m.Key)
	switch docstore.ErrCode(m.ErrCode) {
	case docstore.ErrCNotFound:
		return docstore.NewNotFoundError(key)
	case docstore.ErrCExists:
		return docstore.NewExistsError(key)
	case docstore.ErrCVersionMismatch:
		return docstore.NewVersionMismatchError(key)
	case docstore.ErrCDecoding:
		return docstore.NewDecodingError(fmt.Errorf("%s", m.Err))
	default:
		return docstore.NewGeneralError(fmt.Errorf("%s", m.Err))
	}
}

// --------------------------------------------------------------------------
// Comparison Mapping
// --------------------------------------------------------------------------

// ComparisonToWire converts a comparison operator to its wire form.
func ComparisonToWire(cmp docstore.Comparison) string {
	switch cmp {
	case docstore.CmpEQ:
		return "eq"
	case docstore.CmpGT:
		return "gt"
	case docstore.CmpLT:
		return "lt"
	case docstore.CmpGTE:
		return "gte"
	default:
		return "lte"
	}
}

// ComparisonFromWire parses the wire form of a comparison operator.
func ComparisonFromWire(s string) (docstore.Comparison, error) {
	switch s {
	case "eq":
		return docstore.CmpEQ, nil
	case "gt":
		return docstore.CmpGT, nil
	case "lt":
		return docstore.CmpLT, nil
	case "gte":
		return docstore.CmpGTE, nil
	case "lte":
		return docstore.CmpLTE, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator: %q", s)
	}
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetDocRequest creates a new GetDoc request
func NewGetDocRequest(key string) *Message {
	return &Message{
		MsgType: MsgTDocGet,
		Key:     key,
	}
}

// NewGetDocResponse creates a new GetDoc response
func NewGetDocResponse(key string, doc docstore.Document, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocGet,
		Key:     key,
		Value:   doc.Value,
		Version: uint64(doc.Version),
	}
	msg.SetError(err)
	return msg
}

// NewCreateDocRequest creates a new CreateDoc request
func NewCreateDocRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTDocCreate,
		Key:     key,
		Value:   value,
	}
}

// NewCreateDocResponse creates a new CreateDoc response
func NewCreateDocResponse(key string, doc docstore.Document, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocCreate,
		Key:     key,
		Version: uint64(doc.Version),
	}
	msg.SetError(err)
	return msg
}

// NewUpdateDocRequest creates a new UpdateDoc request
func NewUpdateDocRequest(key string, value []byte, expected uint64) *Message {
	return &Message{
		MsgType: MsgTDocUpdate,
		Key:     key,
		Value:   value,
		Version: expected,
	}
}

// NewUpdateDocResponse creates a new UpdateDoc response
func NewUpdateDocResponse(key string, doc docstore.Document, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocUpdate,
		Key:     key,
		Version: uint64(doc.Version),
	}
	msg.SetError(err)
	return msg
}

// NewRemoveKeyRequest creates a new RemoveKey request
func NewRemoveKeyRequest(key string) *Message {
	return &Message{
		MsgType: MsgTDocRemove,
		Key:     key,
	}
}

// NewRemoveKeyResponse creates a new RemoveKey response
func NewRemoveKeyResponse(key string, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocRemove,
		Key:     key,
	}
	msg.SetError(err)
	return msg
}

// NewGetCounterRequest creates a new GetCounter request
func NewGetCounterRequest(key string) *Message {
	return &Message{
		MsgType: MsgTCntGet,
		Key:     key,
	}
}

// NewGetCounterResponse creates a new GetCounter response
func NewGetCounterResponse(key string, total int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTCntGet,
		Key:     key,
		Count:   total,
	}
	msg.SetError(err)
	return msg
}

// NewIncrCounterRequest creates a new IncrementCounter request
func NewIncrCounterRequest(key string, delta int64) *Message {
	return &Message{
		MsgType: MsgTCntAdd,
		Key:     key,
		Count:   delta,
	}
}

// NewIncrCounterResponse creates a new IncrementCounter response
func NewIncrCounterResponse(key string, total int64, err error) *Message {
	msg := &Message{
		MsgType: MsgTCntAdd,
		Key:     key,
		Count:   total,
	}
	msg.SetError(err)
	return msg
}

// NewScanRequest creates a new Scan request
func NewScanRequest(req docstore.ScanRequest) *Message {
	return &Message{
		MsgType: MsgTDocScan,
		Key:     string(req.Pivot),
		Cmp:     ComparisonToWire(req.Cmp),
		Limit:   req.Limit,
		Offset:  req.Offset,
		Stale:   req.Consistency == docstore.AllowStale,
	}
}

// NewScanResponse creates a new Scan response
func NewScanResponse(docs []DocRow, err error) *Message {
	msg := &Message{
		MsgType: MsgTDocScan,
		Docs:    docs,
	}
	msg.SetError(err)
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewInfoResponse creates a new Info response, the info is carried as JSON
// in the Value field
func NewInfoResponse(info []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
		Value:   info,
	}
	msg.SetError(err)
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTDocGet:
		return "getDoc"
	case MsgTDocCreate:
		return "createDoc"
	case MsgTDocUpdate:
		return "updateDoc"
	case MsgTDocRemove:
		return "removeKey"
	case MsgTCntGet:
		return "getCounter"
	case MsgTCntAdd:
		return "incrCounter"
	case MsgTDocScan:
		return "scanKeys"
	case MsgTInfo:
		return "info"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "getDoc":
		*t = MsgTDocGet
	case "createDoc":
		*t = MsgTDocCreate
	case "updateDoc":
		*t = MsgTDocUpdate
	case "removeKey":
		*t = MsgTDocRemove
	case "getCounter":
		*t = MsgTCntGet
	case "incrCounter":
		*t = MsgTCntAdd
	case "scanKeys":
		*t = MsgTDocScan
	case "info":
		*t = MsgTInfo
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Document operations

	MsgTDocGet    // Fetch a document by key
	MsgTDocCreate // Insert a document if the key is absent
	MsgTDocUpdate // Replace a document under a version precondition
	MsgTDocRemove // Delete a document
	MsgTDocScan   // Select documents by a key range predicate

	// Counter operations

	MsgTCntGet // Read a counter value
	MsgTCntAdd // Add a delta to a counter

	// Introspection operations

	MsgTInfo // Retrieve bucket metadata

	// Custom operations

	MsgTCustom // Custom operation type
)
