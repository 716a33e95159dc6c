package query

import (
	"context"
	"time"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

// Cache snapshot kinds written by the analytics warmers.
const (
	KindErrorRate  = "error_rate"
	KindLogVolume  = "log_volume"
	KindTopErrors  = "top_errors"
	KindUsageStats = "usage_stats"

	IntervalErrorRate = "5min"
	IntervalLogVolume = "1hour"
)

// Server implements the query RPC service
type Server struct {
	store *Store
	cache *kv.Client
}

// NewServer creates the query service
func NewServer(store *Store, cache *kv.Client) *Server {
	return &Server{store: store, cache: cache}
}

func (s *Server) QueryLogs(ctx context.Context, in *rpc.QueryLogsRequest) (*rpc.LogListReply, error) {
	if in.Level != "" && !types.ValidLevel(in.Level) {
		return nil, types.NewValidationError("level", "is not a valid log level")
	}
	if in.LogType != "" && !types.ValidLogType(in.LogType) {
		return nil, types.NewValidationError("log_type", "is not a valid log type")
	}

	filters := LogFilters{
		From:        in.From,
		To:          in.To,
		Level:       in.Level,
		LogType:     in.LogType,
		Environment: in.Environment,
		Fingerprint: in.Fingerprint,
	}
	logs, total, err := s.store.QueryLogs(ctx, in.ProjectID, filters, Page{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	return listReply(logs, total, in.Offset), nil
}

func (s *Server) SearchLogs(ctx context.Context, in *rpc.SearchLogsRequest) (*rpc.LogListReply, error) {
	if in.Query == "" {
		return nil, types.NewValidationError("query", "is required")
	}
	filters := LogFilters{From: in.From, To: in.To}
	logs, total, err := s.store.SearchLogs(ctx, in.ProjectID, in.Query, filters, Page{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	return listReply(logs, total, in.Offset), nil
}

func (s *Server) GetLog(ctx context.Context, in *rpc.GetLogRequest) (*rpc.LogReply, error) {
	ev, err := s.store.GetLog(ctx, in.LogID, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return &rpc.LogReply{Log: ev}, nil
}

func (s *Server) GetErrorList(ctx context.Context, in *rpc.ErrorListRequest) (*rpc.LogListReply, error) {
	start, end, _, err := ResolvePeriod(in.Period, in.From, in.To, time.Now())
	if err != nil {
		return nil, err
	}
	logs, total, err := s.store.ErrorLogs(ctx, in.ProjectID, start, end, Page{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	return listReply(logs, total, in.Offset), nil
}

func (s *Server) GetAggregatedMetrics(ctx context.Context, in *rpc.AggregatedMetricsRequest) (*rpc.AggregatedMetricsReply, error) {
	switch types.MetricType(in.MetricType) {
	case types.MetricTypeException, types.MetricTypeEndpoint, types.MetricTypeLogVolume:
	default:
		return nil, types.NewValidationError("metric_type", "is not a valid metric type")
	}

	start, end, granularity, err := ResolvePeriod(in.Period, in.From, in.To, time.Now())
	if err != nil {
		return nil, err
	}

	rows, err := s.store.AggregatedRows(ctx, in.ProjectID, in.MetricType, start, end, in.EndpointPath)
	if err != nil {
		return nil, err
	}
	return &rpc.AggregatedMetricsReply{
		Granularity: string(granularity),
		Buckets:     AssembleBuckets(rows, start, end, granularity),
	}, nil
}

func (s *Server) GetErrorRate(ctx context.Context, in *rpc.CachedMetricsRequest) (*rpc.CachedMetricsReply, error) {
	return s.cached(ctx, kv.MetricsKey(KindErrorRate, in.ProjectID, IntervalErrorRate))
}

func (s *Server) GetLogVolume(ctx context.Context, in *rpc.CachedMetricsRequest) (*rpc.CachedMetricsReply, error) {
	return s.cached(ctx, kv.MetricsKey(KindLogVolume, in.ProjectID, IntervalLogVolume))
}

func (s *Server) GetTopErrors(ctx context.Context, in *rpc.CachedMetricsRequest) (*rpc.CachedMetricsReply, error) {
	return s.cached(ctx, kv.MetricsKey(KindTopErrors, in.ProjectID, ""))
}

func (s *Server) GetUsageStats(ctx context.Context, in *rpc.CachedMetricsRequest) (*rpc.CachedMetricsReply, error) {
	return s.cached(ctx, kv.MetricsKey(KindUsageStats, in.ProjectID, ""))
}

// cached serves a warmed snapshot verbatim. A cold cache is an empty
// reply, never a recomputation on the query path.
func (s *Server) cached(ctx context.Context, key string) (*rpc.CachedMetricsReply, error) {
	var data map[string]interface{}
	found, err := s.cache.GetJSON(ctx, key, &data)
	if err != nil {
		return nil, err
	}
	if !found {
		return &rpc.CachedMetricsReply{Found: false}, nil
	}
	return &rpc.CachedMetricsReply{Found: true, Data: data}, nil
}

func listReply(logs []*types.LogEvent, total int64, offset int) *rpc.LogListReply {
	return &rpc.LogListReply{
		Logs:    logs,
		Total:   total,
		HasMore: int64(offset+len(logs)) < total,
	}
}
