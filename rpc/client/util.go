package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/rpc/common"
	"github.com/ValentinKolb/dDoc/rpc/serializer"
	"github.com/ValentinKolb/dDoc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCDocStore with composition pattern
type rpcClientAdapter struct {
	bucketId   uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends a request message to the server and returns the response message.
// It honors context cancellation before the request is put on the wire, checks
// whether the response is an error response and rebuilds the original error
// kind from the wire error code, and verifies the response type matches the
// request type.
func (a *rpcClientAdapter) invoke(ctx context.Context, req *common.Message) (*common.Message, error) {
	// Fail fast on an already cancelled context
	if err := ctx.Err(); err != nil {
		return nil, docstore.NewGeneralError(err)
	}

	// Serialize the request
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, docstore.NewGeneralError(err)
	}

	// Send the request
	respBytes, err := a.transport.Send(a.bucketId, reqBytes)
	if err != nil {
		return nil, docstore.NewGeneralError(err)
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, docstore.NewDecodingError(err)
	}

	// Check if the response is an error response
	if err := resp.DecodeError(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, docstore.NewGeneralError(
			fmt.Errorf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	// Return the response
	return resp, nil
}
