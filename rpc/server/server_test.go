package server

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore/memstore"
	"github.com/ValentinKolb/dDoc/lib/doctable/vtable"
	"github.com/ValentinKolb/dDoc/rpc/common"
	"github.com/ValentinKolb/dDoc/rpc/serializer"
	"github.com/ValentinKolb/dDoc/rpc/transport"
)

// captureTransport records the handler the server registers so tests can
// invoke it directly without a network listener
type captureTransport struct {
	handler transport.ServerHandleFunc
}

func (t *captureTransport) RegisterHandler(h transport.ServerHandleFunc) { t.handler = h }
func (t *captureTransport) Listen(config common.ServerConfig) error     { return nil }

// faultySerializer fails to serialize every message except plain error
// responses, delegating everything else to a real serializer
type faultySerializer struct {
	inner serializer.IRPCSerializer
}

func (s *faultySerializer) Serialize(msg common.Message) ([]byte, error) {
	if msg.MsgType != common.MsgTError {
		return nil, fmt.Errorf("unserializable message")
	}
	return s.inner.Serialize(msg)
}

func (s *faultySerializer) Deserialize(b []byte, msg *common.Message) error {
	return s.inner.Deserialize(b, msg)
}

// newTestServer creates a server with one local bucket and a captured
// transport handler
func newTestServer(t *testing.T, ser serializer.IRPCSerializer) (*rpcServer, *captureTransport) {
	t.Helper()

	tr := &captureTransport{}
	srv := NewRPCServer(common.ServerConfig{}, tr, ser)
	srv.buckets.Store(1, serverBucket{
		Store:   memstore.NewMemoryStore(vtable.NewVTable),
		Adapter: NewDocStoreServerAdapter(true),
	})
	srv.registerTransportHandler()

	if tr.handler == nil {
		t.Fatal("no handler registered on the transport")
	}
	return &srv, tr
}

func TestTransportHandlerServesRequests(t *testing.T) {
	ser := serializer.NewJSONSerializer()
	_, tr := newTestServer(t, ser)

	req, err := ser.Serialize(*common.NewIncrCounterRequest("hits", 5))
	if err != nil {
		t.Fatalf("failed to serialize request: %v", err)
	}

	respBytes := tr.handler(1, req)

	var resp common.Message
	if err := ser.Deserialize(respBytes, &resp); err != nil {
		t.Fatalf("failed to deserialize response: %v", err)
	}
	if resp.ErrCode != 0 || resp.Err != "" {
		t.Fatalf("increment failed: %s", resp.Err)
	}
	if resp.Count != 5 {
		t.Errorf("expected counter total 5, got %d", resp.Count)
	}
}

func TestTransportHandlerUnknownBucket(t *testing.T) {
	ser := serializer.NewJSONSerializer()
	_, tr := newTestServer(t, ser)

	req, err := ser.Serialize(*common.NewGetDocRequest("a"))
	if err != nil {
		t.Fatalf("failed to serialize request: %v", err)
	}

	respBytes := tr.handler(42, req)

	var resp common.Message
	if err := ser.Deserialize(respBytes, &resp); err != nil {
		t.Fatalf("failed to deserialize response: %v", err)
	}
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected an error response, got %s", resp.MsgType)
	}
	if !strings.Contains(resp.Err, "bucket not found") {
		t.Errorf("unexpected error message: %q", resp.Err)
	}
}

// TestTransportHandlerSerializeFallback verifies that when the response
// cannot be serialized, the client still receives a decodable error message
// instead of an empty frame
func TestTransportHandlerSerializeFallback(t *testing.T) {
	inner := serializer.NewJSONSerializer()
	_, tr := newTestServer(t, &faultySerializer{inner: inner})

	req, err := inner.Serialize(*common.NewGetCounterRequest("hits"))
	if err != nil {
		t.Fatalf("failed to serialize request: %v", err)
	}

	respBytes := tr.handler(1, req)
	if len(respBytes) == 0 {
		t.Fatal("expected a serialized fallback response, got an empty frame")
	}

	var resp common.Message
	if err := inner.Deserialize(respBytes, &resp); err != nil {
		t.Fatalf("failed to deserialize fallback response: %v", err)
	}
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected an error response, got %s", resp.MsgType)
	}
	if !strings.Contains(resp.Err, "failed to serialize response") {
		t.Errorf("unexpected error message: %q", resp.Err)
	}
}
