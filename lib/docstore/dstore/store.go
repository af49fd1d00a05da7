package dstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/docstore/dstore/internal"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("docstore")
)

// storeImpl is the distributed interpreter. It encapsulates a Dragonboat
// NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed interpreter instance which
// uses raft consensus to ensure strict linearizability across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) docstore.IInterpreter {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose. On success it
// returns the numeric result payload (document version or counter total).
// Any non-OK result code is translated into the shared error taxonomy.
func (s *storeImpl) write(ctx context.Context, key docstore.Key, cmd internal.Command) (uint64, error) {
	for i := 0; i < retries; i++ {
		tctx, cancel := context.WithTimeout(ctx, s.timeout)

		res, err := s.nh.SyncPropose(tctx, s.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return 0, docstore.NewGeneralError(err)
		}
		if err := resultError(key, internal.ResultCode(res.Value), res.Data); err != nil {
			return 0, err
		}
		if len(res.Data) < 8 {
			return 0, docstore.NewDecodingError(fmt.Errorf("result payload too short: %d bytes", len(res.Data)))
		}
		return binary.BigEndian.Uint64(res.Data), nil
	}
	return 0, docstore.NewGeneralError(fmt.Errorf("proposal not accepted after %d retries", retries))
}

// read is a generic helper function that queries the statemachine and
// attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to query
// the state machine. If linearizability is not required, the stale parameter
// can be set to true to use the faster StaleRead function.
//
// If the read operation fails due to a system busy error, the function
// retries up to 5 times.
func read[R any](ctx context.Context, r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		// Query the statemachine, use StaleRead if stale is set otherwise use SyncRead (default)
		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			tctx, cancel := context.WithTimeout(ctx, r.timeout)
			res, err = r.nh.SyncRead(tctx, r.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			return zero, docstore.NewGeneralError(err)
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, docstore.NewDecodingError(
				fmt.Errorf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, docstore.NewGeneralError(fmt.Errorf("read not accepted after %d retries", retries))
}

// resultError translates a command result code into the shared error
// taxonomy. Returns nil for ResultOK.
func resultError(key docstore.Key, code internal.ResultCode, data []byte) error {
	switch code {
	case internal.ResultOK:
		return nil
	case internal.ResultNotFound:
		return docstore.NewNotFoundError(key)
	case internal.ResultExists:
		return docstore.NewExistsError(key)
	case internal.ResultVersionMismatch:
		return docstore.NewVersionMismatchError(key)
	default:
		return docstore.NewGeneralError(fmt.Errorf("command rejected (%s): %s", code, string(data)))
	}
}

// toScanOp converts the core comparison operator to the table scan operator.
func toScanOp(cmp docstore.Comparison) doctable.ScanOp {
	switch cmp {
	case docstore.CmpEQ:
		return doctable.ScanEQ
	case docstore.CmpGT:
		return doctable.ScanGT
	case docstore.CmpLT:
		return doctable.ScanLT
	case docstore.CmpGTE:
		return doctable.ScanGTE
	default:
		return doctable.ScanLTE
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see docstore/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) GetDoc(ctx context.Context, key docstore.Key) (docstore.Document, error) {
	res, err := read[internal.DocResult](ctx, s, internal.Query{
		Type: internal.QueryTGetDoc,
		Key:  string(key),
	}, false)
	if err != nil {
		return docstore.Document{}, err
	}
	if !res.Ok {
		return docstore.Document{}, docstore.NewNotFoundError(key)
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(res.Version),
		Value:   res.Value,
	}, nil
}

func (s *storeImpl) CreateDoc(ctx context.Context, key docstore.Key, value docstore.RawValue) (docstore.Document, error) {
	version, err := s.write(ctx, key, internal.Command{
		Type:  internal.CommandTCreate,
		Key:   string(key),
		Value: value,
	})
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(version),
		Value:   value,
	}, nil
}

func (s *storeImpl) UpdateDoc(ctx context.Context, key docstore.Key, value docstore.RawValue, expected docstore.CommitVersion) (docstore.Document, error) {
	version, err := s.write(ctx, key, internal.Command{
		Type:            internal.CommandTUpdate,
		Key:             string(key),
		ExpectedVersion: uint64(expected),
		Value:           value,
	})
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(version),
		Value:   value,
	}, nil
}

func (s *storeImpl) RemoveKey(ctx context.Context, key docstore.Key) error {
	_, err := s.write(ctx, key, internal.Command{
		Type: internal.CommandTRemove,
		Key:  string(key),
	})
	return err
}

func (s *storeImpl) GetCounter(ctx context.Context, key docstore.Key) (int64, error) {
	return read[int64](ctx, s, internal.Query{
		Type: internal.QueryTGetCounter,
		Key:  string(key),
	}, false)
}

func (s *storeImpl) IncrementCounter(ctx context.Context, key docstore.Key, delta int64) (int64, error) {
	total, err := s.write(ctx, key, internal.Command{
		Type:  internal.CommandTCounterAdd,
		Key:   string(key),
		Delta: delta,
	})
	if err != nil {
		return 0, err
	}
	return int64(total), nil
}

// ScanKeys queries the key range on the state machine. AllowStale maps to
// dragonboat's StaleRead (local, possibly outdated), EnsureConsistency to a
// linearizable SyncRead. Every returned row must carry a known payload kind
// tag, otherwise the row set is rejected as a decoding fault.
func (s *storeImpl) ScanKeys(ctx context.Context, req docstore.ScanRequest) ([]docstore.Document, error) {
	stale := req.Consistency == docstore.AllowStale
	res, err := read[internal.ScanResult](ctx, s, internal.Query{
		Type: internal.QueryTScan,
		Scan: doctable.ScanQuery{
			Op:     toScanOp(req.Cmp),
			Pivot:  string(req.Pivot),
			Limit:  req.Limit,
			Offset: req.Offset,
		},
	}, stale)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(res.Rows))
	for _, row := range res.Rows {
		if row.Kind != internal.PayloadKindJSON {
			return nil, docstore.NewDecodingError(
				fmt.Errorf("scan row %q carries unknown payload kind %q", row.Key, row.Kind))
		}
		docs = append(docs, docstore.Document{
			Key:     docstore.Key(row.Key),
			Version: docstore.CommitVersion(row.Version),
			Value:   row.Value,
		})
	}
	return docs, nil
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// TableInfo retrieves metadata about the replicated table. The query is
// served via StaleRead since slightly outdated statistics are acceptable.
func (s *storeImpl) TableInfo(ctx context.Context) (doctable.TableInfo, error) {
	return read[doctable.TableInfo](ctx, s, internal.Query{
		Type: internal.QueryTGetTableInfo,
	}, true)
}
