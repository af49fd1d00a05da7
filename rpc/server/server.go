package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/docstore/dstore"
	"github.com/ValentinKolb/dDoc/lib/docstore/memstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/ValentinKolb/dDoc/lib/doctable/vtable"
	"github.com/ValentinKolb/dDoc/rpc/common"
	"github.com/ValentinKolb/dDoc/rpc/serializer"
	"github.com/ValentinKolb/dDoc/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverBucket is a struct that represents a bucket in the RPC server
// It contains the interpreter it encapsulates and the adapter
// that handles requests for the bucket
type serverBucket struct {
	Store   docstore.IInterpreter
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create buckets map
	bucketMap := xsync.NewMapOf[uint64, serverBucket]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		buckets:    bucketMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	buckets    *xsync.MapOf[uint64, serverBucket]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(bucketId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate bucket
		bucket, ok := s.buckets.Load(bucketId)

		// Case bucket does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "bucket not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *bucket.Adapter.Handle(context.Background(), &msg, bucket.Store)
			}
		}

		// Record request metrics per message type and outcome
		s.recordRequest(bucketId, msg.MsgType, &respMsg, start)

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			// Replace the unserializable response with a plain error message
			fallback := common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
			val, err = s.serializer.Serialize(fallback)
			if err != nil {
				Logger.Errorf("failed to serialize fallback error response: %v", err)
				return nil
			}
		}
		return val
	})
}

// recordRequest updates the Prometheus counters and duration histogram for
// one handled request
func (s *rpcServer) recordRequest(bucketId uint64, msgType common.MessageType, resp *common.Message, start time.Time) {
	outcome := "ok"
	if resp.MsgType == common.MsgTError || resp.ErrCode > 0 {
		outcome = "error"
	}

	metrics.GetOrCreateCounter(fmt.Sprintf(
		`ddoc_rpc_requests_total{bucket="%d",type=%q,outcome=%q}`,
		bucketId, msgType.String(), outcome,
	)).Inc()

	metrics.GetOrCreateHistogram(fmt.Sprintf(
		`ddoc_rpc_request_duration_seconds{bucket="%d",type=%q}`,
		bucketId, msgType.String(),
	)).UpdateDuration(start)
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Function to create a new table instance
	tableFactory := doctable.Factory(vtable.NewVTable)

	// Create the Dragonboat NodeHost
	var nodeHost *dragonboat.NodeHost
	var err error
	if s.config.HasReplicatedBucket() {
		// Only create the NodeHost if we have replicated buckets
		nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
	}

	// Configure the timeout for the distributed store
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE BUCKETS

	/*
		Note: A single RPC Server can host any number of replicated and or local
		buckets. Replicated buckets are backed by a RAFT state machine, local
		buckets by a plain in-memory table. The following loop creates all the
		buckets and stores them for the RPC server.
	*/

	for _, bucketConfig := range s.config.Buckets {

		switch bucketConfig.Type {

		// Case local in-memory bucket
		case common.BucketTypeLocal:
			s.buckets.Store(bucketConfig.BucketID, serverBucket{
				Store:   memstore.NewMemoryStore(tableFactory),
				Adapter: NewDocStoreServerAdapter(s.config.EnableScans),
			})
			Logger.Infof("created local bucket %d", bucketConfig.BucketID)

		// Case replicated bucket
		case common.BucketTypeReplicated:
			if nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create replicated bucket")
			}

			// Start Raft for the bucket
			if err := nodeHost.StartConcurrentReplica(
				s.config.ClusterMembers,
				false,
				dstore.CreateStateMachineFactory(tableFactory),
				s.config.ToDragonboatConfig(bucketConfig.BucketID),
			); err != nil {
				Logger.Errorf("failed to start bucket %v: %v", bucketConfig.BucketID, err)
			}

			s.buckets.Store(bucketConfig.BucketID, serverBucket{
				Store:   dstore.NewDistributedStore(nodeHost, bucketConfig.BucketID, timeout),
				Adapter: NewDocStoreServerAdapter(s.config.EnableScans),
			})
			Logger.Infof("created replicated bucket %d", bucketConfig.BucketID)

		default:
			return fmt.Errorf("invalid bucket type: %s", bucketConfig.Type)
		}
	}

	Logger.Infof("dDoc setup completed successfully")

	// Start the metrics endpoint if configured
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// serveMetrics exposes all collected metrics in Prometheus text format
func (s *rpcServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Starting metrics endpoint on %s", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
		Logger.Errorf("metrics endpoint failed: %v", err)
	}
}

// Serve starts the RPC server
// This function will also initialize the server plus the buckets and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
