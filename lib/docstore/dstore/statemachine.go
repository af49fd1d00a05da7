package dstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dDoc/lib/docstore/dstore/internal"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// DocStateMachine is a state machine implementation for Dragonboat RAFT.
// It applies replicated commands to a doctable.IDocTable, the same engine
// the in-memory interpreter runs on, so both backends produce identical
// outcomes for identical preconditions.
type DocStateMachine struct {
	replicaID uint64
	shardID   uint64
	table     doctable.IDocTable // the actual dataStorage
}

// CreateStateMachineFactory returns a function that can be used by dragonboat
// to create a new statemachine for a node host. The factory pattern is used
// to enable the caller to pass an interchangeable table factory.
func CreateStateMachineFactory(factory doctable.Factory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &DocStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			table:     factory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the
// corresponding table method.
func (fsm *DocStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse the request into the Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, fmt.Errorf("invalid Query type: %T", itf)
	}

	// Handle different Query types
	switch q.Type {
	case internal.QueryTGetDoc:
		entry, status := fsm.table.Get(q.Key)
		return internal.DocResult{
			Ok:      status == doctable.StatusOK,
			Version: entry.Version,
			Value:   entry.Value,
		}, nil
	case internal.QueryTGetCounter:
		return fsm.table.CounterGet(q.Key), nil
	case internal.QueryTScan:
		entries := fsm.table.Scan(q.Scan)
		rows := make([]internal.ScanRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, internal.ScanRow{
				Key:     e.Key,
				Version: e.Entry.Version,
				Kind:    internal.PayloadKindJSON,
				Value:   e.Entry.Value,
			})
		}
		return internal.ScanResult{Rows: rows}, nil
	case internal.QueryTGetTableInfo:
		return fsm.table.Info(), nil
	default:
		return nil, fmt.Errorf("unknown Query operation: %d", q.Type)
	}
}

// Update handles write commands on the table instance.
// All write operations are serialized into []byte and are accessible via the
// entries struct.
func (fsm *DocStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		// Handle each entry
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{
				Value: uint64(internal.ResultInvalidCommand),
				Data:  []byte("empty command ignored"),
			}
			continue
		}

		// Deserialize the command
		cmd := internal.Command{}
		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[idx].Result = sm.Result{
				Value: uint64(internal.ResultInvalidCommand),
				Data:  []byte(fmt.Sprintf("failed to deserialize command: %v", err)),
			}
			continue
		}

		switch cmd.Type {
		case internal.CommandTCreate:
			entry, status := fsm.table.Insert(cmd.Key, cmd.Value)
			entries[idx].Result = commandResult(status, entry.Version)
		case internal.CommandTUpdate:
			entry, status := fsm.table.Replace(cmd.Key, cmd.Value, cmd.ExpectedVersion)
			entries[idx].Result = commandResult(status, entry.Version)
		case internal.CommandTRemove:
			status := fsm.table.Remove(cmd.Key)
			entries[idx].Result = commandResult(status, 0)
		case internal.CommandTCounterAdd:
			total := fsm.table.CounterAdd(cmd.Key, cmd.Delta)
			entries[idx].Result = commandResult(doctable.StatusOK, uint64(total))
		default:
			entries[idx].Result = sm.Result{
				Value: uint64(internal.ResultInvalidCommand),
				Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
			}
		}
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("Statemachine took long to update. Batch updated %d entries, took %.2fms:", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// commandResult packs a table status and a numeric payload (the resulting
// document version, or the new counter total) into a raft result. The
// payload is only set for successful commands.
func commandResult(status doctable.Status, payload uint64) sm.Result {
	code := internal.StatusToResultCode(status)
	if code != internal.ResultOK {
		return sm.Result{Value: uint64(code)}
	}
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, payload)
	return sm.Result{Value: uint64(code), Data: data}
}

// PrepareSnapshot is not used. We don't need to prepare anything since we use
// fuzzy snapshotting.
func (fsm *DocStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a fuzzy table snapshot to the writer.
func (fsm *DocStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	return fsm.table.Save(writer)
}

// RecoverFromSnapshot restores the table state from a snapshot reader.
func (fsm *DocStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	return fsm.table.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *DocStateMachine) Close() error {
	return fsm.table.Close()
}
