// Package dstore implements a distributed, fault-tolerant document store
// backend using the Dragonboat RAFT consensus library. It provides a strongly
// consistent implementation of the docstore.IInterpreter interface that can
// operate across multiple nodes while maintaining linearizable consistency.
//
// Architecture:
//
// The dstore implementation consists of three main components:
//
//   - Store Client: Implements the docstore.IInterpreter interface and
//     communicates with the RAFT cluster. It serializes operations into
//     commands, sends them to the consensus layer, and processes responses.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine implementation that
//     processes commands and queries on each node. The state machine contains
//     the actual doctable.IDocTable instance and applies operations to it.
//
//   - Communication Protocol: Defined in the internal package, this consists
//     of Command and Query structures with serialization logic for transmitting
//     operations across the network.
//
// The state machine runs on the same table engine as the in-memory
// interpreter (memstore), which is what guarantees that both backends emit
// the same error kind for every operation given equivalent preconditions.
//
// Write Operations:
//
//	All write operations (CreateDoc, UpdateDoc, RemoveKey, IncrementCounter)
//	follow this flow:
//
//	1. The operation is serialized into a Command structure
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. The leader node replicates the command to a majority of followers
//	4. Once committed, the command is executed on the state machine on each node
//	   (Update method in statemachine.go)
//	5. The result code and the resulting document version (or counter total)
//	   are returned to the client
//
//	The table outcome travels back as a result code mirroring doctable.Status,
//	so a failed precondition (duplicate create, stale update version, missing
//	remove target) surfaces on the client as the same error kind the in-memory
//	interpreter would produce.
//
// Read Operations:
//
// Read operations (GetDoc, GetCounter, ScanKeys, TableInfo) can be handled in
// two ways:
//
//   - Linearizable Reads: By default, reads use SyncRead which ensures that
//     the node processing the read has applied all committed log entries
//     locally before processing the request. This guarantees the operation
//     sees the latest committed state of the table, regardless of which node
//     in the cluster processes the read.
//
//   - Stale Reads: A scan requesting the relaxed consistency mode (and the
//     TableInfo query) uses StaleRead, which may return slightly outdated
//     information but with lower latency and without leader involvement.
//
// Error Handling and Retries:
//
//	The store implements automatic retry logic for transient failures:
//
//	- System Busy: When Dragonboat returns ErrSystemBusy, the operation is
//	  retried after a short delay, up to a configurable number of attempts.
//
//	- Timeouts: All operations have a configurable timeout. If consensus
//	  cannot be reached within this period, the operation fails with a
//	  general error.
//
//	- Decoding Faults: Scan rows carry a payload kind tag. Rows with an
//	  unknown tag, and result payloads that are too short to decode, are
//	  reported as decoding errors instead of being passed through.
//
// Snapshotting and Recovery:
//
// The state machine implements Dragonboat's snapshotting interface to persist
// its state:
//
//   - Fuzzy Snapshots: The state machine creates snapshots without pausing
//     operations, leveraging the table's Save method.
//
//   - Recovery: On startup or when joining a cluster, nodes first restore
//     their state from the most recent snapshot using the table's Load
//     method, then replay all RAFT log entries committed after the snapshot
//     was created. After recovery the node reaches the same consistent state
//     as all other nodes in the cluster.
//
// Usage:
//
//	Setting up and using dstore requires several steps:
//
//	1. Initialize Dragonboat NodeHost (RAFT client)
//	2. Create a doctable.Factory function
//	3. Start a RAFT replica with the state machine factory
//	4. Create the distributed store with appropriate timeout
//	5. Begin operations once the shard is ready
//
//	Example:
//
//	  // Create NodeHost (RAFT client)
//	  nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	  if err != nil { ... }
//
//	  // Table factory for the state machine
//	  factory := func() doctable.IDocTable { return vtable.NewVTable() }
//
//	  // Create and start shard (RAFT server)
//	  err := nh.StartConcurrentReplica(
//	      clusterMembers,
//	      false,
//	      dstore.CreateStateMachineFactory(factory),
//	      shardConfig)
//	  if err != nil { ... }
//
//	  // Create store with appropriate timeout
//	  timeout := time.Duration(5) * time.Second
//	  store := dstore.NewDistributedStore(nh, shardID, timeout)
//
//	  // Wait for shard readiness then begin operations
//	  // ...
//
// Performance Considerations:
//
//   - Consensus Overhead: Due to the requirement for replication and majority
//     commitment, distributed operations are significantly slower than local
//     operations.
//
//   - Network Conditions: Operation latency is highly dependent on network
//     conditions between nodes. Timeouts should be adjusted based on expected
//     network performance.
//
// Limitations:
//
//   - Majority Requirement: Operations cannot proceed if a majority of nodes
//     are unavailable
//   - Leader Dependency: Write operations require the leader to be available
//   - Consistency vs. Performance: The strong consistency model introduces
//     performance overhead
//
// For scenarios where distributed consensus is not required, consider using
// the simpler and faster memstore package, which provides a single-node
// implementation of the same interface with identical error semantics.
package dstore
