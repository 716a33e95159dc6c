package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/kv"
)

// Service bundles the scheduler, the hourly rollups, the cache warmers
// and the routes refresher into one runnable unit.
type Service struct {
	scheduler *Scheduler
}

// NewService wires every aggregation job at its configured interval
func NewService(pool *pgxpool.Pool, cache *kv.Client, cfg config.Aggregation) *Service {
	agg := NewAggregator(pool)
	warmer := NewWarmer(pool, cache, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	routes := NewRoutesRefresher(pool)

	sched := NewScheduler(time.Duration(cfg.MisfireGraceS) * time.Second)
	hourly := time.Duration(cfg.AggregatedMin) * time.Minute
	sched.Add("endpoint_metrics", hourly, agg.RunEndpointMetrics)
	sched.Add("exception_metrics", hourly, agg.RunExceptionMetrics)
	sched.Add("log_volume_metrics", hourly, agg.RunLogVolumeMetrics)
	sched.Add("bottleneck_metrics", hourly, agg.RunBottleneckMetrics)
	sched.Add("warm_error_rate", time.Duration(cfg.ErrorRateMin)*time.Minute, warmer.WarmErrorRate)
	sched.Add("warm_log_volume", time.Duration(cfg.LogVolumeMin)*time.Minute, warmer.WarmLogVolume)
	sched.Add("warm_top_errors", time.Duration(cfg.TopErrorsMin)*time.Minute, warmer.WarmTopErrors)
	sched.Add("warm_usage_stats", time.Duration(cfg.UsageStatsMin)*time.Minute, warmer.WarmUsageStats)
	sched.Add("available_routes", time.Duration(cfg.AvailableRoutesMin)*time.Minute, routes.Run)

	return &Service{scheduler: sched}
}

// Start launches all jobs
func (s *Service) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
}

// Stop drains in-flight jobs and stops the scheduler
func (s *Service) Stop() {
	s.scheduler.Stop()
}
