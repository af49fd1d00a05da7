// Package server implements the RPC server for the distributed document store
// system. It provides the adapter that handles RPC requests against a document
// store interpreter, along with the core server implementation that manages
// buckets and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for all document and counter operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible bucket configuration with local and replicated backends
//   - Prometheus metrics for request counts and latencies per bucket
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     docstore.IInterpreter.
//
//   - NewDocStoreServerAdapter: Factory function creating an adapter for document
//     store operations, translating RPC requests to interpreter method calls.
//     Scan requests can be disabled per server via the configuration.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Buckets: []common.ServerBucket{
//	    {BucketID: 100, Type: common.BucketTypeLocal},
//	  },
//	  TimeoutSecond: 5,
//	  EnableScans:   true,
//	  LogLevel:      "info",
//	  Transport: common.ServerTransportConfig{
//	    Endpoint: "0.0.0.0:8080",
//	  },
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of buckets, which can be mixed within a single server:
//
//   - BucketTypeLocal: An in-memory bucket local to one server process, suitable
//     for single-node deployments or development environments.
//
//   - BucketTypeReplicated: A bucket replicated across the cluster using Raft
//     consensus, providing strong consistency across multiple nodes. When using
//     this type, RAFT configuration (RTTMillisecond, SnapshotEntries,
//     CompactionOverhead, DataDir, ReplicaID, and ClusterMembers) must be
//     properly configured.
//
// Observability:
//
//	When MetricsEndpoint is set in the configuration, the server exposes request
//	counters and latency histograms in Prometheus text format under /metrics.
//
// Thread Safety:
//
//	The server handles each connection in its own goroutine and stores buckets
//	in a concurrent map, so requests for different buckets are processed fully
//	in parallel.
package server
