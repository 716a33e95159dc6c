package partition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/storage"
)

// duplicateTable is the SQLSTATE raised when a partition already
// exists. Races between workers and the scheduler are normal; the
// loser treats the collision as success.
const duplicateTable = "42P07"

// Manager creates monthly child partitions of the logs table on
// demand. An in-process cache short-circuits repeat checks; the
// database remains the source of truth.
type Manager struct {
	db    *storage.DB
	mu    sync.Mutex
	known map[string]struct{}
}

// NewManager creates a partition manager
func NewManager(db *storage.DB) *Manager {
	return &Manager{
		db:    db,
		known: make(map[string]struct{}),
	}
}

// Name returns the partition table name covering t, e.g. logs_2026_08
func Name(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("logs_%04d_%02d", t.Year(), int(t.Month()))
}

// MonthRange returns the [from, to) bounds of the partition covering t
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// EnsureForDate makes sure the partition covering t exists
func (m *Manager) EnsureForDate(ctx context.Context, t time.Time) error {
	name := Name(t)

	m.mu.Lock()
	_, cached := m.known[name]
	m.mu.Unlock()
	if cached {
		return nil
	}

	from, to := MonthRange(t)
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF logs FOR VALUES FROM ('%s') TO ('%s')`,
		name, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)

	if _, err := m.db.Pool.Exec(ctx, stmt); err != nil {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != duplicateTable {
			return fmt.Errorf("failed to create partition %s: %w", name, err)
		}
	} else {
		metrics.PartitionsCreated.Inc()
		logger := log.WithComponent("partition")
		logger.Info().
			Str("partition", name).
			Msg("partition created")
	}

	m.mu.Lock()
	m.known[name] = struct{}{}
	m.mu.Unlock()
	return nil
}

// EnsureForDates ensures partitions for every distinct month in ts.
// Workers call this before a bulk insert as a safety net.
func (m *Manager) EnsureForDates(ctx context.Context, ts []time.Time) error {
	seen := make(map[string]time.Time)
	for _, t := range ts {
		seen[Name(t)] = t
	}
	for _, t := range seen {
		if err := m.EnsureForDate(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAhead creates partitions for the current month plus the next
// months months.
func (m *Manager) EnsureAhead(ctx context.Context, months int) error {
	for _, t := range monthsAhead(time.Now().UTC(), months) {
		if err := m.EnsureForDate(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// monthsAhead enumerates the first day of the month containing now and
// of the next months months. Stepping from the first keeps AddDate
// from normalizing month-end bases (Jan 31 + 1 month is Mar 3, which
// would skip February entirely).
func monthsAhead(now time.Time, months int) []time.Time {
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, months+1)
	for i := 0; i <= months; i++ {
		out = append(out, base.AddDate(0, i, 0))
	}
	return out
}
