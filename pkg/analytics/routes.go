package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/log"
)

// routesLookback bounds how far back the refresher scans for endpoint
// paths. Routes quiet for longer than this age out of the list.
const routesLookback = 7 * 24 * time.Hour

// RoutesRefresher derives each project's route list from the distinct
// endpoint paths seen in its logs and writes it back to the project
// record. The bottleneck job iterates exactly this list.
type RoutesRefresher struct {
	pool *pgxpool.Pool
}

// NewRoutesRefresher creates the available-routes job
func NewRoutesRefresher(pool *pgxpool.Pool) *RoutesRefresher {
	return &RoutesRefresher{pool: pool}
}

// Run recomputes available_routes for every project with recent
// endpoint traffic.
func (r *RoutesRefresher) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-routesLookback)
	rows, err := r.pool.Query(ctx, `
		SELECT project_id, array_agg(DISTINCT attributes->>'path')
		FROM logs
		WHERE log_type = 'endpoint'
		  AND attributes->>'path' IS NOT NULL
		  AND event_timestamp >= $1
		GROUP BY project_id`, since)
	if err != nil {
		return fmt.Errorf("failed to collect endpoint paths: %w", err)
	}
	defer rows.Close()

	byProject := map[int64][]string{}
	for rows.Next() {
		var (
			projectID int64
			paths     []string
		)
		if err := rows.Scan(&projectID, &paths); err != nil {
			return fmt.Errorf("failed to scan endpoint paths: %w", err)
		}
		byProject[projectID] = paths
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read endpoint paths: %w", err)
	}

	for projectID, paths := range byProject {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := json.Marshal(paths)
		if err != nil {
			return fmt.Errorf("failed to encode routes: %w", err)
		}
		if _, err := r.pool.Exec(ctx, `
			UPDATE projects
			SET available_routes = $2, updated_at = now()
			WHERE id = $1`, projectID, data); err != nil {
			return fmt.Errorf("failed to update routes for project %d: %w", projectID, err)
		}
	}
	logger := log.WithComponent("analytics")
	logger.Debug().
		Int("projects", len(byProject)).
		Msg("available routes refreshed")
	return nil
}
