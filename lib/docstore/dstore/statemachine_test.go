package dstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/docstore/dstore/internal"
	dstesting "github.com/ValentinKolb/dDoc/lib/docstore/testing"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/lib/doctable/vtable"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

func newTestMachine() *DocStateMachine {
	factory := CreateStateMachineFactory(func() doctable.IDocTable { return vtable.NewVTable() })
	return factory(1, 1).(*DocStateMachine)
}

// propose applies a single command to the machine and returns its result.
func propose(t *testing.T, fsm *DocStateMachine, index uint64, cmd internal.Command) sm.Result {
	t.Helper()
	entries, err := fsm.Update([]sm.Entry{{Index: index, Cmd: cmd.Serialize()}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return entries[0].Result
}

func resultVersion(t *testing.T, res sm.Result) uint64 {
	t.Helper()
	if internal.ResultCode(res.Value) != internal.ResultOK {
		t.Fatalf("Expected OK result, got %s (%s)", internal.ResultCode(res.Value), string(res.Data))
	}
	if len(res.Data) != 8 {
		t.Fatalf("Expected 8 byte result payload, got %d bytes", len(res.Data))
	}
	return binary.BigEndian.Uint64(res.Data)
}

// --------------------------------------------------------------------------
// Update semantics
// --------------------------------------------------------------------------

func TestStateMachineCreateUpdateRemove(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	// Create starts at version 0
	res := propose(t, fsm, 1, internal.Command{Type: internal.CommandTCreate, Key: "doc", Value: []byte("v1")})
	if v := resultVersion(t, res); v != 0 {
		t.Errorf("Expected version 0 on create, got %d", v)
	}

	// Duplicate create is rejected
	res = propose(t, fsm, 2, internal.Command{Type: internal.CommandTCreate, Key: "doc", Value: []byte("other")})
	if internal.ResultCode(res.Value) != internal.ResultExists {
		t.Errorf("Expected Exists on duplicate create, got %s", internal.ResultCode(res.Value))
	}

	// Update with the matching version succeeds and bumps the version
	res = propose(t, fsm, 3, internal.Command{Type: internal.CommandTUpdate, Key: "doc", ExpectedVersion: 0, Value: []byte("v2")})
	if v := resultVersion(t, res); v != 1 {
		t.Errorf("Expected version 1 after update, got %d", v)
	}

	// Update with a stale version is rejected, state survives
	res = propose(t, fsm, 4, internal.Command{Type: internal.CommandTUpdate, Key: "doc", ExpectedVersion: 0, Value: []byte("v3")})
	if internal.ResultCode(res.Value) != internal.ResultVersionMismatch {
		t.Errorf("Expected VersionMismatch on stale update, got %s", internal.ResultCode(res.Value))
	}
	entry, status := fsm.table.Get("doc")
	if status != doctable.StatusOK || !bytes.Equal(entry.Value, []byte("v2")) || entry.Version != 1 {
		t.Errorf("Rejected update must not change state: %+v (%s)", entry, status)
	}

	// Remove deletes, removing again reports NotFound
	res = propose(t, fsm, 5, internal.Command{Type: internal.CommandTRemove, Key: "doc"})
	if internal.ResultCode(res.Value) != internal.ResultOK {
		t.Errorf("Expected OK on remove, got %s", internal.ResultCode(res.Value))
	}
	res = propose(t, fsm, 6, internal.Command{Type: internal.CommandTRemove, Key: "doc"})
	if internal.ResultCode(res.Value) != internal.ResultNotFound {
		t.Errorf("Expected NotFound on second remove, got %s", internal.ResultCode(res.Value))
	}
}

func TestStateMachineCounters(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	// First add creates the counter at zero and applies the delta
	res := propose(t, fsm, 1, internal.Command{Type: internal.CommandTCounterAdd, Key: "hits", Delta: 7})
	if total := int64(resultVersion(t, res)); total != 7 {
		t.Errorf("Expected counter total 7, got %d", total)
	}

	// Negative deltas work
	res = propose(t, fsm, 2, internal.Command{Type: internal.CommandTCounterAdd, Key: "hits", Delta: -3})
	if total := int64(resultVersion(t, res)); total != 4 {
		t.Errorf("Expected counter total 4, got %d", total)
	}
}

func TestStateMachineBatchUpdate(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	// A single batch with mixed outcomes: every entry gets its own result
	entries := []sm.Entry{
		{Index: 1, Cmd: (&internal.Command{Type: internal.CommandTCreate, Key: "a", Value: []byte("1")}).Serialize()},
		{Index: 2, Cmd: (&internal.Command{Type: internal.CommandTCreate, Key: "a", Value: []byte("2")}).Serialize()},
		{Index: 3, Cmd: (&internal.Command{Type: internal.CommandTRemove, Key: "missing"}).Serialize()},
		{Index: 4, Cmd: nil},
		{Index: 5, Cmd: []byte{1, 2, 3}},
	}
	entries, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	want := []internal.ResultCode{
		internal.ResultOK,
		internal.ResultExists,
		internal.ResultNotFound,
		internal.ResultInvalidCommand,
		internal.ResultInvalidCommand,
	}
	for i, code := range want {
		if got := internal.ResultCode(entries[i].Result.Value); got != code {
			t.Errorf("Entry %d: expected %s, got %s", i, code, got)
		}
	}
}

// --------------------------------------------------------------------------
// Lookup semantics
// --------------------------------------------------------------------------

func TestStateMachineLookup(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	propose(t, fsm, 1, internal.Command{Type: internal.CommandTCreate, Key: "doc", Value: []byte("payload")})
	propose(t, fsm, 2, internal.Command{Type: internal.CommandTCounterAdd, Key: "hits", Delta: 42})

	// GetDoc hit
	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGetDoc, Key: "doc"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	doc := res.(internal.DocResult)
	if !doc.Ok || doc.Version != 0 || !bytes.Equal(doc.Value, []byte("payload")) {
		t.Errorf("Unexpected doc result: %+v", doc)
	}

	// GetDoc miss
	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetDoc, Key: "missing"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.(internal.DocResult).Ok {
		t.Errorf("Expected Ok=false for missing key")
	}

	// GetCounter
	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetCounter, Key: "hits"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.(int64) != 42 {
		t.Errorf("Expected counter 42, got %d", res.(int64))
	}

	// TableInfo
	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetTableInfo})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	info := res.(doctable.TableInfo)
	if info.DocCount != 1 || info.CounterCount != 1 {
		t.Errorf("Unexpected table info: %+v", info)
	}

	// Invalid query payload
	if _, err = fsm.Lookup("bogus"); err == nil {
		t.Errorf("Expected error for invalid query type")
	}
}

func TestStateMachineScanRowsCarryPayloadKind(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	for i, key := range []string{"a1", "a2", "a3"} {
		propose(t, fsm, uint64(i+1), internal.Command{Type: internal.CommandTCreate, Key: key, Value: []byte(key)})
	}

	res, err := fsm.Lookup(internal.Query{
		Type: internal.QueryTScan,
		Scan: doctable.ScanQuery{Op: doctable.ScanGT, Pivot: "a1"},
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	rows := res.(internal.ScanResult).Rows
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Kind != internal.PayloadKindJSON {
			t.Errorf("Row %q: expected payload kind %q, got %q", row.Key, internal.PayloadKindJSON, row.Kind)
		}
	}
}

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

func TestStateMachineSnapshotRoundTrip(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	propose(t, fsm, 1, internal.Command{Type: internal.CommandTCreate, Key: "doc", Value: []byte("v1")})
	propose(t, fsm, 2, internal.Command{Type: internal.CommandTUpdate, Key: "doc", ExpectedVersion: 0, Value: []byte("v2")})
	propose(t, fsm, 3, internal.Command{Type: internal.CommandTCounterAdd, Key: "hits", Delta: 9})

	var buf bytes.Buffer
	if err := fsm.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	restored := newTestMachine()
	defer restored.Close()
	if err := restored.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot failed: %v", err)
	}

	entry, status := restored.table.Get("doc")
	if status != doctable.StatusOK || entry.Version != 1 || !bytes.Equal(entry.Value, []byte("v2")) {
		t.Errorf("Restored doc mismatch: %+v (%s)", entry, status)
	}
	if total := restored.table.CounterGet("hits"); total != 9 {
		t.Errorf("Restored counter mismatch: %d", total)
	}
}

// --------------------------------------------------------------------------
// Cross-backend equivalence
// --------------------------------------------------------------------------

// smInterpreter drives a DocStateMachine directly through its Update and
// Lookup entry points, bypassing the consensus transport. This exercises
// the exact command and query paths the distributed client uses, so the
// shared conformance suite proves that the replicated backend produces the
// same error kinds as the in-memory one.
type smInterpreter struct {
	fsm   *DocStateMachine
	index uint64
}

func (a *smInterpreter) apply(t internal.Command, key docstore.Key) (uint64, error) {
	a.index++
	entries, err := a.fsm.Update([]sm.Entry{{Index: a.index, Cmd: t.Serialize()}})
	if err != nil {
		return 0, docstore.NewGeneralError(err)
	}
	res := entries[0].Result
	if err := resultError(key, internal.ResultCode(res.Value), res.Data); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(res.Data), nil
}

func (a *smInterpreter) GetDoc(_ context.Context, key docstore.Key) (docstore.Document, error) {
	res, err := a.fsm.Lookup(internal.Query{Type: internal.QueryTGetDoc, Key: string(key)})
	if err != nil {
		return docstore.Document{}, docstore.NewGeneralError(err)
	}
	doc := res.(internal.DocResult)
	if !doc.Ok {
		return docstore.Document{}, docstore.NewNotFoundError(key)
	}
	return docstore.Document{Key: key, Version: docstore.CommitVersion(doc.Version), Value: doc.Value}, nil
}

func (a *smInterpreter) CreateDoc(_ context.Context, key docstore.Key, value docstore.RawValue) (docstore.Document, error) {
	version, err := a.apply(internal.Command{Type: internal.CommandTCreate, Key: string(key), Value: value}, key)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{Key: key, Version: docstore.CommitVersion(version), Value: value}, nil
}

func (a *smInterpreter) UpdateDoc(_ context.Context, key docstore.Key, value docstore.RawValue, expected docstore.CommitVersion) (docstore.Document, error) {
	version, err := a.apply(internal.Command{
		Type:            internal.CommandTUpdate,
		Key:             string(key),
		ExpectedVersion: uint64(expected),
		Value:           value,
	}, key)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{Key: key, Version: docstore.CommitVersion(version), Value: value}, nil
}

func (a *smInterpreter) RemoveKey(_ context.Context, key docstore.Key) error {
	_, err := a.apply(internal.Command{Type: internal.CommandTRemove, Key: string(key)}, key)
	return err
}

func (a *smInterpreter) GetCounter(_ context.Context, key docstore.Key) (int64, error) {
	res, err := a.fsm.Lookup(internal.Query{Type: internal.QueryTGetCounter, Key: string(key)})
	if err != nil {
		return 0, docstore.NewGeneralError(err)
	}
	return res.(int64), nil
}

func (a *smInterpreter) IncrementCounter(_ context.Context, key docstore.Key, delta int64) (int64, error) {
	total, err := a.apply(internal.Command{Type: internal.CommandTCounterAdd, Key: string(key), Delta: delta}, key)
	if err != nil {
		return 0, err
	}
	return int64(total), nil
}

func (a *smInterpreter) ScanKeys(_ context.Context, req docstore.ScanRequest) ([]docstore.Document, error) {
	res, err := a.fsm.Lookup(internal.Query{
		Type: internal.QueryTScan,
		Scan: doctable.ScanQuery{
			Op:     toScanOp(req.Cmp),
			Pivot:  string(req.Pivot),
			Limit:  req.Limit,
			Offset: req.Offset,
		},
	})
	if err != nil {
		return nil, docstore.NewGeneralError(err)
	}
	rows := res.(internal.ScanResult).Rows
	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		if row.Kind != internal.PayloadKindJSON {
			return nil, docstore.NewDecodingError(
				errUnknownKind{key: row.Key, kind: row.Kind})
		}
		docs = append(docs, docstore.Document{
			Key:     docstore.Key(row.Key),
			Version: docstore.CommitVersion(row.Version),
			Value:   row.Value,
		})
	}
	return docs, nil
}

type errUnknownKind struct{ key, kind string }

func (e errUnknownKind) Error() string {
	return "scan row " + e.key + " carries unknown payload kind " + e.kind
}

func TestStateMachineInterpreterConformance(t *testing.T) {
	dstesting.RunInterpreterTests(t, "statemachine", func() docstore.IInterpreter {
		return &smInterpreter{fsm: newTestMachine()}
	})
}
