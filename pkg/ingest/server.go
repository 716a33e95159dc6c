package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/queue"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

// Server implements rpc.IngestServer: validate, enrich, enqueue,
// count, notify.
type Server struct {
	enricher  *Enricher
	queue     *queue.Queue
	publisher *Publisher
	usage     *kv.Client
	maxBatch  int
}

// NewServer creates the ingestion RPC server
func NewServer(cfg config.Validation, q *queue.Queue, publisher *Publisher, usage *kv.Client) *Server {
	return &Server{
		enricher:  NewEnricher(cfg),
		queue:     q,
		publisher: publisher,
		usage:     usage,
		maxBatch:  cfg.MaxBatchSize,
	}
}

// countUsage bumps the project's live daily counter by the number of
// accepted logs. The gateway reads this counter on every quota check,
// so it must move at accept time, not at storage time. Failures are
// logged, not returned; losing a count tick never rejects a log.
func (s *Server) countUsage(ctx context.Context, projectID int64, accepted int) {
	if accepted == 0 {
		return
	}
	if _, err := s.usage.IncrementDailyUsage(ctx, projectID, time.Now().UTC(), int64(accepted)); err != nil {
		logger := log.WithComponent("ingest")
		logger.Warn().
			Int64("project_id", projectID).
			Err(err).
			Msg("failed to increment daily usage counter")
	}
}

// IngestLog accepts one log entry
func (s *Server) IngestLog(ctx context.Context, in *rpc.IngestLogRequest) (*rpc.IngestLogReply, error) {
	if in.ProjectID == 0 || in.Log == nil {
		return nil, rpc.StatusError(types.NewValidationError("project_id", "is required"))
	}

	ev := in.Log
	ev.ProjectID = in.ProjectID

	if err := s.enricher.Enrich(ev, time.Now()); err != nil {
		metrics.LogsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, rpc.StatusError(err)
	}

	if err := s.queue.Enqueue(ctx, in.ProjectID, ev); err != nil {
		return nil, rpc.StatusError(err)
	}

	metrics.LogsAccepted.WithLabelValues(strconv.FormatInt(in.ProjectID, 10)).Inc()
	s.countUsage(ctx, in.ProjectID, 1)
	s.publisher.PublishIfQualifying(ctx, ev)

	return &rpc.IngestLogReply{Success: true, Message: "Log queued successfully"}, nil
}

// IngestLogBatch accepts up to maxBatch entries. Entries failing
// validation are dropped individually; valid ones are enqueued with a
// single multi-push. The reply reports per-index errors.
func (s *Server) IngestLogBatch(ctx context.Context, in *rpc.IngestBatchRequest) (*rpc.IngestBatchReply, error) {
	if in.ProjectID == 0 {
		return nil, rpc.StatusError(types.NewValidationError("project_id", "is required"))
	}
	if len(in.Logs) == 0 {
		return nil, rpc.StatusError(types.NewValidationError("logs", "batch must contain at least one log entry"))
	}
	if len(in.Logs) > s.maxBatch {
		return nil, rpc.StatusError(types.NewValidationError("logs",
			fmt.Sprintf("batch exceeds %d entries", s.maxBatch)))
	}

	now := time.Now()
	valid := make([]*types.LogEvent, 0, len(in.Logs))
	var errs []string

	for i, ev := range in.Logs {
		if ev == nil {
			errs = append(errs, fmt.Sprintf("Log %d: empty entry", i))
			continue
		}
		ev.ProjectID = in.ProjectID
		if err := s.enricher.Enrich(ev, now); err != nil {
			metrics.LogsRejected.WithLabelValues(rejectReason(err)).Inc()
			errs = append(errs, fmt.Sprintf("Log %d: %s", i, err.Error()))
			continue
		}
		valid = append(valid, ev)
	}

	if len(valid) > 0 {
		if err := s.queue.EnqueueBatch(ctx, in.ProjectID, valid); err != nil {
			return nil, rpc.StatusError(err)
		}
		metrics.LogsAccepted.WithLabelValues(strconv.FormatInt(in.ProjectID, 10)).
			Add(float64(len(valid)))
		s.countUsage(ctx, in.ProjectID, len(valid))
		for _, ev := range valid {
			s.publisher.PublishIfQualifying(ctx, ev)
		}
	}

	reply := &rpc.IngestBatchReply{
		Success: len(errs) == 0,
		Queued:  len(valid),
		Failed:  len(errs),
	}
	if len(errs) > 0 {
		reply.Error = strings.Join(errs, "; ")
	}
	return reply, nil
}

// GetQueueDepth reports the current depth of a project's queue
func (s *Server) GetQueueDepth(ctx context.Context, in *rpc.QueueDepthRequest) (*rpc.QueueDepthReply, error) {
	depth, err := s.queue.Depth(ctx, in.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	metrics.QueueDepth.WithLabelValues(strconv.FormatInt(in.ProjectID, 10)).Set(float64(depth))
	return &rpc.QueueDepthReply{Depth: depth}, nil
}

func rejectReason(err error) string {
	var ve *types.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return ve.Field
	}
	return "other"
}
