package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/docstore/memstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/lib/doctable/vtable"
	"github.com/ValentinKolb/dDoc/rpc/common"
)

// newTestAdapter returns an adapter with scans enabled and a fresh in-memory store
func newTestAdapter(t *testing.T) (IRPCServerAdapter, docstore.IInterpreter) {
	t.Helper()
	return NewDocStoreServerAdapter(true), memstore.NewMemoryStore(vtable.NewVTable)
}

func TestAdapterDocumentLifecycle(t *testing.T) {
	adapter, docs := newTestAdapter(t)
	ctx := context.Background()

	// Create
	resp := adapter.Handle(ctx, common.NewCreateDocRequest("a", []byte(`{"n":1}`)), docs)
	if resp.ErrCode != 0 || resp.Err != "" {
		t.Fatalf("create failed: %s", resp.Err)
	}
	created := resp.Version

	// Get
	resp = adapter.Handle(ctx, common.NewGetDocRequest("a"), docs)
	if resp.ErrCode != 0 {
		t.Fatalf("get failed: %s", resp.Err)
	}
	if string(resp.Value) != `{"n":1}` {
		t.Errorf("expected payload %q, got %q", `{"n":1}`, resp.Value)
	}
	if resp.Version != created {
		t.Errorf("expected version %d, got %d", created, resp.Version)
	}

	// Update with correct version
	resp = adapter.Handle(ctx, common.NewUpdateDocRequest("a", []byte(`{"n":2}`), created), docs)
	if resp.ErrCode != 0 {
		t.Fatalf("update failed: %s", resp.Err)
	}
	if resp.Version == created {
		t.Errorf("expected a new version after update, got %d again", resp.Version)
	}

	// Remove
	resp = adapter.Handle(ctx, common.NewRemoveKeyRequest("a"), docs)
	if resp.ErrCode != 0 {
		t.Fatalf("remove failed: %s", resp.Err)
	}

	// Get after remove must report not found
	resp = adapter.Handle(ctx, common.NewGetDocRequest("a"), docs)
	if docstore.ErrCode(resp.ErrCode) != docstore.ErrCNotFound {
		t.Errorf("expected not found error code, got %d (%s)", resp.ErrCode, resp.Err)
	}
}

func TestAdapterErrorCodesSurviveHandling(t *testing.T) {
	adapter, docs := newTestAdapter(t)
	ctx := context.Background()

	// Missing key
	resp := adapter.Handle(ctx, common.NewGetDocRequest("missing"), docs)
	if docstore.ErrCode(resp.ErrCode) != docstore.ErrCNotFound {
		t.Errorf("expected ErrCNotFound, got %d", resp.ErrCode)
	}

	// Duplicate create
	adapter.Handle(ctx, common.NewCreateDocRequest("dup", []byte(`{}`)), docs)
	resp = adapter.Handle(ctx, common.NewCreateDocRequest("dup", []byte(`{}`)), docs)
	if docstore.ErrCode(resp.ErrCode) != docstore.ErrCExists {
		t.Errorf("expected ErrCExists, got %d", resp.ErrCode)
	}

	// Stale version update
	resp = adapter.Handle(ctx, common.NewUpdateDocRequest("dup", []byte(`{}`), 999), docs)
	if docstore.ErrCode(resp.ErrCode) != docstore.ErrCVersionMismatch {
		t.Errorf("expected ErrCVersionMismatch, got %d", resp.ErrCode)
	}

	// Round trip through DecodeError must rebuild the exact kind
	if err := resp.DecodeError(); !docstore.IsVersionMismatch(err) {
		t.Errorf("expected version mismatch error after decode, got %v", err)
	}
}

func TestAdapterCounters(t *testing.T) {
	adapter, docs := newTestAdapter(t)
	ctx := context.Background()

	// Absent counter reads as zero
	resp := adapter.Handle(ctx, common.NewGetCounterRequest("cnt"), docs)
	if resp.ErrCode != 0 {
		t.Fatalf("counter get failed: %s", resp.Err)
	}
	if resp.Count != 0 {
		t.Errorf("expected 0 for absent counter, got %d", resp.Count)
	}

	// First increment creates the counter
	resp = adapter.Handle(ctx, common.NewIncrCounterRequest("cnt", 7), docs)
	if resp.Count != 7 {
		t.Errorf("expected counter total 7, got %d", resp.Count)
	}

	// Negative delta
	resp = adapter.Handle(ctx, common.NewIncrCounterRequest("cnt", -3), docs)
	if resp.Count != 4 {
		t.Errorf("expected counter total 4, got %d", resp.Count)
	}
}

func TestAdapterScan(t *testing.T) {
	adapter, docs := newTestAdapter(t)
	ctx := context.Background()

	for _, key := range []string{"a1", "a2", "a3", "a4", "a5"} {
		adapter.Handle(ctx, common.NewCreateDocRequest(key, []byte(`{}`)), docs)
	}

	req := common.NewScanRequest(docstore.ScanRequest{
		Cmp:   docstore.CmpGT,
		Pivot: "a2",
		Limit: 2,
	})
	resp := adapter.Handle(ctx, req, docs)
	if resp.ErrCode != 0 {
		t.Fatalf("scan failed: %s", resp.Err)
	}

	if len(resp.Docs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Docs))
	}
	if resp.Docs[0].Key != "a3" || resp.Docs[1].Key != "a4" {
		t.Errorf("expected rows [a3 a4], got [%s %s]", resp.Docs[0].Key, resp.Docs[1].Key)
	}
	for _, row := range resp.Docs {
		if row.Kind != common.PayloadKindJSON {
			t.Errorf("expected payload kind %q, got %q", common.PayloadKindJSON, row.Kind)
		}
	}
}

func TestAdapterScanGate(t *testing.T) {
	adapter := NewDocStoreServerAdapter(false)
	docs := memstore.NewMemoryStore(vtable.NewVTable)
	ctx := context.Background()

	req := common.NewScanRequest(docstore.ScanRequest{Cmp: docstore.CmpGT, Pivot: "a"})
	resp := adapter.Handle(ctx, req, docs)
	if resp.ErrCode == 0 {
		t.Fatal("expected an error response for a scan on a scan-disabled server")
	}
	if docstore.ErrCode(resp.ErrCode) != docstore.ErrCGeneral {
		t.Errorf("expected ErrCGeneral, got %d", resp.ErrCode)
	}
}

func TestAdapterInfo(t *testing.T) {
	adapter, docs := newTestAdapter(t)
	ctx := context.Background()

	adapter.Handle(ctx, common.NewCreateDocRequest("a", []byte(`{}`)), docs)
	adapter.Handle(ctx, common.NewIncrCounterRequest("c", 1), docs)

	resp := adapter.Handle(ctx, common.NewInfoRequest(), docs)
	if resp.ErrCode != 0 {
		t.Fatalf("info failed: %s", resp.Err)
	}

	var info doctable.TableInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		t.Fatalf("failed to unmarshal info: %v", err)
	}
	if info.DocCount != 1 {
		t.Errorf("expected 1 document, got %d", info.DocCount)
	}
	if info.CounterCount != 1 {
		t.Errorf("expected 1 counter, got %d", info.CounterCount)
	}
}

func TestAdapterUnsupportedMessageType(t *testing.T) {
	adapter, docs := newTestAdapter(t)

	resp := adapter.Handle(context.Background(), &common.Message{MsgType: common.MsgTCustom}, docs)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
}

func TestAdapterNilStore(t *testing.T) {
	adapter := NewDocStoreServerAdapter(true)

	resp := adapter.Handle(context.Background(), common.NewGetDocRequest("a"), nil)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
}
