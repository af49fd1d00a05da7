package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/rpc/common"
)

// iIntrospector is implemented by interpreters that can report table metadata
type iIntrospector interface {
	TableInfo(ctx context.Context) (doctable.TableInfo, error)
}

// NewDocStoreServerAdapter creates a new adapter for document store buckets.
// When enableScans is false, scan requests are rejected with an error response
// instead of being forwarded to the interpreter.
func NewDocStoreServerAdapter(enableScans bool) IRPCServerAdapter {
	return &docStoreServerAdapterImpl{enableScans: enableScans}
}

type docStoreServerAdapterImpl struct {
	enableScans bool
}

func (adapter *docStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Message, docs docstore.IInterpreter) *common.Message {
	// Check for nil interpreter
	if docs == nil {
		return common.NewErrorResponse("handler: document store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTDocGet:
		doc, err := docs.GetDoc(ctx, docstore.Key(req.Key))
		return common.NewGetDocResponse(req.Key, doc, err)

	case common.MsgTDocCreate:
		doc, err := docs.CreateDoc(ctx, docstore.Key(req.Key), req.Value)
		return common.NewCreateDocResponse(req.Key, doc, err)

	case common.MsgTDocUpdate:
		doc, err := docs.UpdateDoc(ctx, docstore.Key(req.Key), req.Value, docstore.CommitVersion(req.Version))
		return common.NewUpdateDocResponse(req.Key, doc, err)

	case common.MsgTDocRemove:
		err := docs.RemoveKey(ctx, docstore.Key(req.Key))
		return common.NewRemoveKeyResponse(req.Key, err)

	case common.MsgTCntGet:
		total, err := docs.GetCounter(ctx, docstore.Key(req.Key))
		return common.NewGetCounterResponse(req.Key, total, err)

	case common.MsgTCntAdd:
		total, err := docs.IncrementCounter(ctx, docstore.Key(req.Key), req.Count)
		return common.NewIncrCounterResponse(req.Key, total, err)

	case common.MsgTDocScan:
		return adapter.handleScan(ctx, req, docs)

	case common.MsgTInfo:
		return adapter.handleInfo(ctx, docs)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("unsupported message type: %s", req.MsgType),
		)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleScan executes a scan request against the interpreter
func (adapter *docStoreServerAdapterImpl) handleScan(ctx context.Context, req *common.Message, docs docstore.IInterpreter) *common.Message {
	// Scans can be disabled per server since they read the full key index
	if !adapter.enableScans {
		return common.NewScanResponse(nil,
			docstore.NewGeneralError(fmt.Errorf("scan operations are disabled on this server")))
	}

	// Parse the comparison operator
	cmp, err := common.ComparisonFromWire(req.Cmp)
	if err != nil {
		return common.NewScanResponse(nil, docstore.NewGeneralError(err))
	}

	// Map the wire consistency flag
	consistency := docstore.EnsureConsistency
	if req.Stale {
		consistency = docstore.AllowStale
	}

	// Run the scan
	result, err := docs.ScanKeys(ctx, docstore.ScanRequest{
		Cmp:         cmp,
		Pivot:       docstore.Key(req.Key),
		Limit:       req.Limit,
		Offset:      req.Offset,
		Consistency: consistency,
	})
	if err != nil {
		return common.NewScanResponse(nil, err)
	}

	// Build the wire rows
	rows := make([]common.DocRow, 0, len(result))
	for _, doc := range result {
		rows = append(rows, common.DocRow{
			Key:     string(doc.Key),
			Version: uint64(doc.Version),
			Kind:    common.PayloadKindJSON,
			Value:   doc.Value,
		})
	}
	return common.NewScanResponse(rows, nil)
}

// handleInfo reports table metadata for interpreters that support it
func (adapter *docStoreServerAdapterImpl) handleInfo(ctx context.Context, docs docstore.IInterpreter) *common.Message {
	introspector, ok := docs.(iIntrospector)
	if !ok {
		return common.NewInfoResponse(nil,
			docstore.NewGeneralError(fmt.Errorf("bucket does not support table info")))
	}

	info, err := introspector.TableInfo(ctx)
	if err != nil {
		return common.NewInfoResponse(nil, err)
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return common.NewInfoResponse(nil, docstore.NewGeneralError(err))
	}
	return common.NewInfoResponse(raw, nil)
}
