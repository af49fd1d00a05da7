package client

import (
	"context"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/rpc/common"
	"github.com/ValentinKolb/dDoc/rpc/serializer"
)

// stubTransport is a client transport that answers every request with a
// canned response, bypassing the network entirely
type stubTransport struct {
	respond func(bucketId uint64, req []byte) ([]byte, error)
}

func (t *stubTransport) Connect(config common.ClientConfig) error { return nil }
func (t *stubTransport) Close() error                             { return nil }
func (t *stubTransport) Send(bucketId uint64, req []byte) ([]byte, error) {
	return t.respond(bucketId, req)
}

// newStubDocStore creates a document store client whose transport replies
// with the given message for every request
func newStubDocStore(t *testing.T, resp common.Message) docstore.IInterpreter {
	t.Helper()

	s := serializer.NewJSONSerializer()
	respBytes, err := s.Serialize(resp)
	if err != nil {
		t.Fatalf("failed to serialize canned response: %v", err)
	}

	store, err := NewRPCDocStore(1, common.ClientConfig{}, &stubTransport{
		respond: func(uint64, []byte) ([]byte, error) { return respBytes, nil },
	}, s)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return store
}

// TestScanKeysDecodesTaggedRows verifies that scan rows tagged with the
// known payload kind are decoded into documents
func TestScanKeysDecodesTaggedRows(t *testing.T) {
	store := newStubDocStore(t, common.Message{
		MsgType: common.MsgTDocScan,
		Docs: []common.DocRow{
			{Key: "a1", Version: 0, Kind: common.PayloadKindJSON, Value: []byte(`{"n":1}`)},
			{Key: "a2", Version: 3, Kind: common.PayloadKindJSON, Value: []byte(`{"n":2}`)},
		},
	})

	docs, err := store.ScanKeys(context.Background(), docstore.ScanRequest{
		Cmp:   docstore.CmpGTE,
		Pivot: "a1",
	})
	if err != nil {
		t.Fatalf("expected scan to succeed, got %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Key != "a1" || docs[1].Key != "a2" {
		t.Errorf("unexpected keys: %q, %q", docs[0].Key, docs[1].Key)
	}
	if docs[1].Version != 3 {
		t.Errorf("expected version 3, got %d", docs[1].Version)
	}
	if string(docs[1].Value) != `{"n":2}` {
		t.Errorf("unexpected value: %s", docs[1].Value)
	}
}

// TestScanKeysRejectsUnknownPayloadKind verifies that a scan response
// carrying a row with an unrecognized payload kind is rejected as a decoding
// error instead of being skipped or passed through
func TestScanKeysRejectsUnknownPayloadKind(t *testing.T) {
	tests := []struct {
		name string
		rows []common.DocRow
	}{
		{
			name: "single row with unknown kind",
			rows: []common.DocRow{
				{Key: "a1", Version: 0, Kind: "cbor", Value: []byte{0xa1, 0x61, 0x6e, 0x01}},
			},
		},
		{
			name: "bad row among valid rows",
			rows: []common.DocRow{
				{Key: "a1", Version: 0, Kind: common.PayloadKindJSON, Value: []byte(`{"n":1}`)},
				{Key: "a2", Version: 1, Kind: "msgpack", Value: []byte{0x81}},
				{Key: "a3", Version: 0, Kind: common.PayloadKindJSON, Value: []byte(`{"n":3}`)},
			},
		},
		{
			name: "row with empty kind",
			rows: []common.DocRow{
				{Key: "a1", Version: 0, Kind: "", Value: []byte(`{"n":1}`)},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubDocStore(t, common.Message{
				MsgType: common.MsgTDocScan,
				Docs:    tc.rows,
			})

			docs, err := store.ScanKeys(context.Background(), docstore.ScanRequest{
				Cmp:   docstore.CmpGTE,
				Pivot: "a1",
			})
			if err == nil {
				t.Fatalf("expected an error, got %d documents", len(docs))
			}
			if !docstore.IsDecoding(err) {
				t.Errorf("expected a decoding error, got %v", err)
			}
			if docs != nil {
				t.Errorf("expected no documents alongside the error, got %d", len(docs))
			}
		})
	}
}
