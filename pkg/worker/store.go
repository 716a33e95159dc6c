package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerlog/ledger/pkg/types"
)

// insertColumns are the log columns written by the bulk insert, in
// placeholder order.
var insertColumns = []string{
	"project_id", "event_timestamp", "ingestion_timestamp",
	"level", "log_type", "importance",
	"environment", "release", "message",
	"error_type", "error_message", "stack_trace",
	"attributes", "sdk_version", "platform", "platform_version",
	"processing_time_ms", "error_fingerprint",
}

// fingerprintGroup accumulates the per-batch rollup for one
// (project, fingerprint) pair.
type fingerprintGroup struct {
	count        int64
	errorType    string
	errorMessage string
	firstSeen    time.Time
	lastSeen     time.Time
	sampleLogID  *int64
	sampleStack  string
}

// storeBatch commits one popped batch in a single transaction: ensure
// partitions, bulk-insert the rows, upsert error groups with in-batch
// counts, bump the project's daily usage row.
func (p *Pool) storeBatch(ctx context.Context, projectID int64, batch []*types.LogEvent) error {
	dates := make([]time.Time, 0, len(batch))
	for _, ev := range batch {
		dates = append(dates, ev.EventTimestamp)
	}
	if err := p.partitions.EnsureForDates(ctx, dates); err != nil {
		return err
	}

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt, args, err := buildInsert(batch)
	if err != nil {
		return err
	}

	rows, err := tx.Query(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("bulk insert failed: %w", err)
	}

	// RETURNING rows come back in insertion order; pair them with the
	// batch to learn the assigned ids for error-group samples.
	ids := make([]int64, 0, len(batch))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan inserted id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("bulk insert failed: %w", err)
	}

	groups := groupFingerprints(batch, ids)
	for fingerprint, g := range groups {
		_, err := tx.Exec(ctx, `
			INSERT INTO error_groups
				(project_id, fingerprint, error_type, error_message,
				 first_seen, last_seen, occurrence_count,
				 sample_log_id, sample_stack_trace)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (project_id, fingerprint) DO UPDATE SET
				occurrence_count = error_groups.occurrence_count + EXCLUDED.occurrence_count,
				last_seen        = GREATEST(error_groups.last_seen, EXCLUDED.last_seen),
				error_message    = EXCLUDED.error_message`,
			projectID, fingerprint, g.errorType, g.errorMessage,
			g.firstSeen, g.lastSeen, g.count,
			g.sampleLogID, nullIfEmpty(g.sampleStack),
		)
		if err != nil {
			return fmt.Errorf("error group upsert failed: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO daily_usage (project_id, usage_date, logs_ingested)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, usage_date) DO UPDATE SET
			logs_ingested = daily_usage.logs_ingested + EXCLUDED.logs_ingested`,
		projectID, time.Now().UTC().Truncate(24*time.Hour), int64(len(batch)),
	)
	if err != nil {
		return fmt.Errorf("daily usage update failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// buildInsert renders one multi-row INSERT ... RETURNING id for the
// whole batch.
func buildInsert(batch []*types.LogEvent) (string, []interface{}, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO logs (")
	sb.WriteString(strings.Join(insertColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(batch)*len(insertColumns))
	for i, ev := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range insertColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*len(insertColumns)+j+1)
		}
		sb.WriteByte(')')

		var attrs interface{}
		if ev.Attributes != nil {
			data, err := json.Marshal(ev.Attributes)
			if err != nil {
				return "", nil, fmt.Errorf("failed to encode attributes: %w", err)
			}
			attrs = data
		}

		args = append(args,
			ev.ProjectID, ev.EventTimestamp.UTC(), ev.IngestionTimestamp.UTC(),
			string(ev.Level), string(ev.LogType), string(ev.Importance),
			nullIfEmpty(ev.Environment), nullIfEmpty(ev.Release), nullIfEmpty(ev.Message),
			nullIfEmpty(ev.ErrorType), nullIfEmpty(ev.ErrorMessage), nullIfEmpty(ev.StackTrace),
			attrs, nullIfEmpty(ev.SDKVersion), nullIfEmpty(ev.Platform), nullIfEmpty(ev.PlatformVersion),
			ev.ProcessingTimeMs, nullIfEmpty(ev.ErrorFingerprint),
		)
	}
	sb.WriteString(" RETURNING id")
	return sb.String(), args, nil
}

// groupFingerprints folds the batch into per-fingerprint rollups. The
// first occurrence in the batch donates the sample log id and stack.
func groupFingerprints(batch []*types.LogEvent, ids []int64) map[string]*fingerprintGroup {
	groups := make(map[string]*fingerprintGroup)
	for i, ev := range batch {
		if ev.ErrorFingerprint == "" {
			continue
		}
		g, ok := groups[ev.ErrorFingerprint]
		if !ok {
			g = &fingerprintGroup{
				errorType:    ev.ErrorType,
				errorMessage: ev.ErrorMessage,
				firstSeen:    ev.EventTimestamp,
				lastSeen:     ev.EventTimestamp,
				sampleStack:  ev.StackTrace,
			}
			if i < len(ids) {
				id := ids[i]
				g.sampleLogID = &id
			}
			groups[ev.ErrorFingerprint] = g
		}
		g.count++
		if ev.EventTimestamp.Before(g.firstSeen) {
			g.firstSeen = ev.EventTimestamp
		}
		if ev.EventTimestamp.After(g.lastSeen) {
			g.lastSeen = ev.EventTimestamp
			g.errorMessage = ev.ErrorMessage
		}
	}
	return groups
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
