package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/rpc/common"
	"github.com/ValentinKolb/dDoc/rpc/serializer"
	"github.com/ValentinKolb/dDoc/rpc/transport"
)

// NewRPCDocStore creates a new RPC document store client
// The function takes a bucket ID, a config, a transport and a serializer as parameters
// It returns a docstore.IInterpreter and an error
func NewRPCDocStore(
	bucketId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (docstore.IInterpreter, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC document store
	s := rpcDocStore{
		rpcClientAdapter{
			bucketId:   bucketId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC document store
	return &s, nil
}

type rpcDocStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the docstore package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcDocStore) GetDoc(ctx context.Context, key docstore.Key) (docstore.Document, error) {
	req := common.NewGetDocRequest(string(key))
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(resp.Version),
		Value:   resp.Value,
	}, nil
}

func (i *rpcDocStore) CreateDoc(ctx context.Context, key docstore.Key, value docstore.RawValue) (docstore.Document, error) {
	req := common.NewCreateDocRequest(string(key), value)
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(resp.Version),
		Value:   value,
	}, nil
}

func (i *rpcDocStore) UpdateDoc(ctx context.Context, key docstore.Key, value docstore.RawValue, expected docstore.CommitVersion) (docstore.Document, error) {
	req := common.NewUpdateDocRequest(string(key), value, uint64(expected))
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		Key:     key,
		Version: docstore.CommitVersion(resp.Version),
		Value:   value,
	}, nil
}

func (i *rpcDocStore) RemoveKey(ctx context.Context, key docstore.Key) error {
	req := common.NewRemoveKeyRequest(string(key))
	_, err := i.invoke(ctx, req)
	return err
}

func (i *rpcDocStore) GetCounter(ctx context.Context, key docstore.Key) (int64, error) {
	req := common.NewGetCounterRequest(string(key))
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcDocStore) IncrementCounter(ctx context.Context, key docstore.Key, delta int64) (int64, error) {
	req := common.NewIncrCounterRequest(string(key), delta)
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcDocStore) ScanKeys(ctx context.Context, scan docstore.ScanRequest) ([]docstore.Document, error) {
	req := common.NewScanRequest(scan)
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(resp.Docs))
	for _, row := range resp.Docs {
		// Reject rows whose payload kind the client cannot decode
		if row.Kind != common.PayloadKindJSON {
			return nil, docstore.NewDecodingError(fmt.Errorf("unknown payload kind %q for key %q", row.Kind, row.Key))
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

// TableInfo fetches metadata about the remote bucket's table
func (i *rpcDocStore) TableInfo(ctx context.Context) (doctable.TableInfo, error) {
	req := common.NewInfoRequest()
	resp, err := i.invoke(ctx, req)
	if err != nil {
		return doctable.TableInfo{}, err
	}

	var info doctable.TableInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return doctable.TableInfo{}, docstore.NewDecodingError(err)
	}
	return info, nil
}
