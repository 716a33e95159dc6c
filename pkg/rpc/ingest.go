package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ingestServiceName = "ledger.IngestService"

// IngestServer is the server API for the ingestion service
type IngestServer interface {
	IngestLog(ctx context.Context, in *IngestLogRequest) (*IngestLogReply, error)
	IngestLogBatch(ctx context.Context, in *IngestBatchRequest) (*IngestBatchReply, error)
	GetQueueDepth(ctx context.Context, in *QueueDepthRequest) (*QueueDepthReply, error)
}

// IngestServiceDesc wires IngestServer into a grpc.Server
var IngestServiceDesc = grpc.ServiceDesc{
	ServiceName: ingestServiceName,
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[IngestLogRequest](ingestServiceName, "IngestLog", func(srv interface{}, ctx context.Context, in *IngestLogRequest) (interface{}, error) {
			return srv.(IngestServer).IngestLog(ctx, in)
		}),
		unary[IngestBatchRequest](ingestServiceName, "IngestLogBatch", func(srv interface{}, ctx context.Context, in *IngestBatchRequest) (interface{}, error) {
			return srv.(IngestServer).IngestLogBatch(ctx, in)
		}),
		unary[QueueDepthRequest](ingestServiceName, "GetQueueDepth", func(srv interface{}, ctx context.Context, in *QueueDepthRequest) (interface{}, error) {
			return srv.(IngestServer).GetQueueDepth(ctx, in)
		}),
	},
}

// IngestClient is the typed client for the ingestion service
type IngestClient struct {
	cc grpc.ClientConnInterface
}

// NewIngestClient creates an ingestion service client on an open connection
func NewIngestClient(cc grpc.ClientConnInterface) *IngestClient {
	return &IngestClient{cc: cc}
}

func (c *IngestClient) IngestLog(ctx context.Context, in *IngestLogRequest) (*IngestLogReply, error) {
	return invoke[IngestLogReply](ctx, c.cc, "/ledger.IngestService/IngestLog", in)
}

func (c *IngestClient) IngestLogBatch(ctx context.Context, in *IngestBatchRequest) (*IngestBatchReply, error) {
	return invoke[IngestBatchReply](ctx, c.cc, "/ledger.IngestService/IngestLogBatch", in)
}

func (c *IngestClient) GetQueueDepth(ctx context.Context, in *QueueDepthRequest) (*QueueDepthReply, error) {
	return invoke[QueueDepthReply](ctx, c.cc, "/ledger.IngestService/GetQueueDepth", in)
}
