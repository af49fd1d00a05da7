// Package client implements the RPC client for the distributed document store
// system. It provides an implementation of the docstore.IInterpreter interface
// that forwards every operation to a remote server bucket via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote document store bucket
//   - Integration with the transport and serialization layers
//   - Faithful reconstruction of document store error kinds from wire
//     error codes, so error handling works identically against a remote
//     bucket and a local in-memory store
//
// Key Components:
//
//   - NewRPCDocStore: Factory function that creates a client implementing the
//     docstore.IInterpreter interface. Programs built with the docstore package
//     run unchanged against this client.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the document store client for bucket 1
//	docs, _ := client.NewRPCDocStore(1, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Run a program against the remote bucket
//	doc, err := docstore.AndThen(
//	  docstore.Create("user:1", []byte(`{"name":"alice"}`)),
//	  func(d docstore.Document) docstore.Program[docstore.Document] {
//	    return docstore.Get("user:1")
//	  },
//	).Run(ctx, docs)
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
