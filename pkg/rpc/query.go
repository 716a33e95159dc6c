package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const queryServiceName = "ledger.QueryService"

// QueryServer is the server API for the query service
type QueryServer interface {
	QueryLogs(ctx context.Context, in *QueryLogsRequest) (*LogListReply, error)
	SearchLogs(ctx context.Context, in *SearchLogsRequest) (*LogListReply, error)
	GetLog(ctx context.Context, in *GetLogRequest) (*LogReply, error)
	GetErrorList(ctx context.Context, in *ErrorListRequest) (*LogListReply, error)
	GetAggregatedMetrics(ctx context.Context, in *AggregatedMetricsRequest) (*AggregatedMetricsReply, error)
	GetErrorRate(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error)
	GetLogVolume(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error)
	GetTopErrors(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error)
	GetUsageStats(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error)
}

// QueryServiceDesc wires QueryServer into a grpc.Server
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: queryServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[QueryLogsRequest](queryServiceName, "QueryLogs", func(srv interface{}, ctx context.Context, in *QueryLogsRequest) (interface{}, error) {
			return srv.(QueryServer).QueryLogs(ctx, in)
		}),
		unary[SearchLogsRequest](queryServiceName, "SearchLogs", func(srv interface{}, ctx context.Context, in *SearchLogsRequest) (interface{}, error) {
			return srv.(QueryServer).SearchLogs(ctx, in)
		}),
		unary[GetLogRequest](queryServiceName, "GetLog", func(srv interface{}, ctx context.Context, in *GetLogRequest) (interface{}, error) {
			return srv.(QueryServer).GetLog(ctx, in)
		}),
		unary[ErrorListRequest](queryServiceName, "GetErrorList", func(srv interface{}, ctx context.Context, in *ErrorListRequest) (interface{}, error) {
			return srv.(QueryServer).GetErrorList(ctx, in)
		}),
		unary[AggregatedMetricsRequest](queryServiceName, "GetAggregatedMetrics", func(srv interface{}, ctx context.Context, in *AggregatedMetricsRequest) (interface{}, error) {
			return srv.(QueryServer).GetAggregatedMetrics(ctx, in)
		}),
		unary[CachedMetricsRequest](queryServiceName, "GetErrorRate", func(srv interface{}, ctx context.Context, in *CachedMetricsRequest) (interface{}, error) {
			return srv.(QueryServer).GetErrorRate(ctx, in)
		}),
		unary[CachedMetricsRequest](queryServiceName, "GetLogVolume", func(srv interface{}, ctx context.Context, in *CachedMetricsRequest) (interface{}, error) {
			return srv.(QueryServer).GetLogVolume(ctx, in)
		}),
		unary[CachedMetricsRequest](queryServiceName, "GetTopErrors", func(srv interface{}, ctx context.Context, in *CachedMetricsRequest) (interface{}, error) {
			return srv.(QueryServer).GetTopErrors(ctx, in)
		}),
		unary[CachedMetricsRequest](queryServiceName, "GetUsageStats", func(srv interface{}, ctx context.Context, in *CachedMetricsRequest) (interface{}, error) {
			return srv.(QueryServer).GetUsageStats(ctx, in)
		}),
	},
}

// QueryClient is the typed client for the query service
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient creates a query service client on an open connection
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

func (c *QueryClient) QueryLogs(ctx context.Context, in *QueryLogsRequest) (*LogListReply, error) {
	return invoke[LogListReply](ctx, c.cc, "/ledger.QueryService/QueryLogs", in)
}

func (c *QueryClient) SearchLogs(ctx context.Context, in *SearchLogsRequest) (*LogListReply, error) {
	return invoke[LogListReply](ctx, c.cc, "/ledger.QueryService/SearchLogs", in)
}

func (c *QueryClient) GetLog(ctx context.Context, in *GetLogRequest) (*LogReply, error) {
	return invoke[LogReply](ctx, c.cc, "/ledger.QueryService/GetLog", in)
}

func (c *QueryClient) GetErrorList(ctx context.Context, in *ErrorListRequest) (*LogListReply, error) {
	return invoke[LogListReply](ctx, c.cc, "/ledger.QueryService/GetErrorList", in)
}

func (c *QueryClient) GetAggregatedMetrics(ctx context.Context, in *AggregatedMetricsRequest) (*AggregatedMetricsReply, error) {
	return invoke[AggregatedMetricsReply](ctx, c.cc, "/ledger.QueryService/GetAggregatedMetrics", in)
}

func (c *QueryClient) GetErrorRate(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error) {
	return invoke[CachedMetricsReply](ctx, c.cc, "/ledger.QueryService/GetErrorRate", in)
}

func (c *QueryClient) GetLogVolume(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error) {
	return invoke[CachedMetricsReply](ctx, c.cc, "/ledger.QueryService/GetLogVolume", in)
}

func (c *QueryClient) GetTopErrors(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error) {
	return invoke[CachedMetricsReply](ctx, c.cc, "/ledger.QueryService/GetTopErrors", in)
}

func (c *QueryClient) GetUsageStats(ctx context.Context, in *CachedMetricsRequest) (*CachedMetricsReply, error) {
	return invoke[CachedMetricsReply](ctx, c.cc, "/ledger.QueryService/GetUsageStats", in)
}
