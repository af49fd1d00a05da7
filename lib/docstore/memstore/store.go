package memstore

import (
	"context"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
)

type storeImpl struct {
	table doctable.IDocTable
}

// NewMemoryStore creates a new in-memory interpreter instance backed by a
// table from the given factory. This interpreter is not distributed and
// completes every operation synchronously; it exists to provide the exact
// error semantics of the distributed interpreter without a running
// cluster, which makes it the canonical test double.
func NewMemoryStore(factory doctable.Factory) docstore.IInterpreter {
	return &storeImpl{table: factory()}
}

// NewMemoryStoreWithTable creates an in-memory interpreter around an
// explicitly provided table. The caller keeps its handle on the table and
// may seed it before and inspect it after running Programs. This
// capability is specific to the in-memory interpreter: the distributed
// backend's state is not introspectable this way.
func NewMemoryStoreWithTable(table doctable.IDocTable) docstore.IInterpreter {
	return &storeImpl{table: table}
}

// RunWithTable runs a Program against a store backed by the given table
// and returns the Program result together with the table, so a test can
// seed a known starting state and inspect the resulting state afterwards.
func RunWithTable[T any](ctx context.Context, prog docstore.Program[T], table doctable.IDocTable) (T, doctable.IDocTable, error) {
	v, err := prog.Run(ctx, NewMemoryStoreWithTable(table))
	return v, table, err
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// statusError translates a table status into the shared error taxonomy.
// Returns nil for StatusOK.
func statusError(key docstore.Key, status doctable.Status) error {
	switch status {
	case doctable.StatusOK:
		return nil
	case doctable.StatusNotFound:
		return docstore.NewNotFoundError(key)
	case doctable.StatusExists:
		return docstore.NewExistsError(key)
	case doctable.StatusVersionMismatch:
		return docstore.NewVersionMismatchError(key)
	default:
		return docstore.NewGeneralError(statusFault{status})
	}
}

type statusFault struct{ status doctable.Status }

func (f statusFault) Error() string { return "unexpected table status: " + f.status.String() }

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

func (s *storeImpl) GetDoc(_ context.Context, key docstore.Key) (docstore.Document, error) {
	entry, status := s.table.Get(string(key))
	if err := statusError(key, status); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(entry.Version),
		Value:   entry.Value,
	}, nil
}

func (s *storeImpl) CreateDoc(_ context.Context, key docstore.Key, value docstore.RawValue) (docstore.Document, error) {
	entry, status := s.table.Insert(string(key), value)
	if err := statusError(key, status); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(entry.Version),
		Value:   value,
	}, nil
}

func (s *storeImpl) UpdateDoc(_ context.Context, key docstore.Key, value docstore.RawValue, expected docstore.CommitVersion) (docstore.Document, error) {
	entry, status := s.table.Replace(string(key), value, uint64(expected))
	if err := statusError(key, status); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(entry.Version),
		Value:   value,
	}, nil
}

func (s *storeImpl) RemoveKey(_ context.Context, key docstore.Key) error {
	return statusError(key, s.table.Remove(string(key)))
}

func (s *storeImpl) GetCounter(_ context.Context, key docstore.Key) (int64, error) {
	return s.table.CounterGet(string(key)), nil
}

func (s *storeImpl) IncrementCounter(_ context.Context, key docstore.Key, delta int64) (int64, error) {
	return s.table.CounterAdd(string(key), delta), nil
}

// ScanKeys completes synchronously against the local table; both
// consistency modes read the same fully current state, so AllowStale is
// simply a no-op hint here.
func (s *storeImpl) ScanKeys(_ context.Context, req docstore.ScanRequest) ([]docstore.Document, error) {
	rows := s.table.Scan(doctable.ScanQuery{
		Op:     toScanOp(req.Cmp),
		Pivot:  string(req.Pivot),
		Limit:  req.Limit,
		Offset: req.Offset,
	})

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docstore.Document{
			Key:     docstore.Key(row.Key),
			Version: docstore.CommitVersion(row.Entry.Version),
			Value:   row.Entry.Value,
		})
	}
	return docs, nil
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// TableInfo returns metadata about the backing table.
func (s *storeImpl) TableInfo(_ context.Context) (doctable.TableInfo, error) {
	return s.table.Info(), nil
}
