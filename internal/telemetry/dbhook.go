package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// QueryHook feeds DatabaseMetrics from bun query events.
type QueryHook struct {
	metrics *DatabaseMetrics
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a bun.QueryHook recording every query on m.
func NewQueryHook(m *DatabaseMetrics) *QueryHook {
	return &QueryHook{metrics: m}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	err := event.Err
	// A lookup that matches no row is not a query failure.
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	elapsed := float64(time.Since(event.StartTime).Microseconds()) / 1000
	h.metrics.RecordQuery(ctx, event.Operation(), elapsed, err)
}
