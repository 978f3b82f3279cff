package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"

	AttrDBOperation = "db.operation"

	AttrAuthMethod  = "auth.method"
	AttrAuthSuccess = "auth.success"

	AttrSessionInvalidatedBy = "session.invalidated_by"
)

// instruments creates instruments on one meter and keeps the first error,
// so constructors can declare every instrument before checking.
type instruments struct {
	meter metric.Meter
	err   error
}

func newInstruments(scope string) *instruments {
	return &instruments{meter: otel.Meter(scope)}
}

func (b *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if b.err == nil {
		b.err = err
	}
	return c
}

func (b *instruments) histogram(name, desc string, bounds ...float64) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	if b.err == nil {
		b.err = err
	}
	return h
}

// ServerMetrics holds the HTTP server instruments. Create once at startup.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ErrorCounter    metric.Int64Counter // 5xx responses
}

// NewServerMetrics creates the HTTP server instruments.
func NewServerMetrics() (*ServerMetrics, error) {
	b := newInstruments("library-boot/http")
	m := &ServerMetrics{
		RequestCounter:  b.counter("http.server.request.count", "Total number of HTTP requests", "{request}"),
		RequestDuration: b.histogram("http.server.request.duration", "HTTP request duration", 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
		ErrorCounter:    b.counter("http.server.error.count", "Total number of HTTP server errors (5xx)", "{error}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordRequest records one finished request. route is the chi route
// pattern, not the raw path, to keep cardinality bounded.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route, status string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPStatusCode, status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)
	if len(status) > 0 && status[0] == '5' {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// DatabaseMetrics holds the query instruments fed by QueryHook.
type DatabaseMetrics struct {
	QueryCounter  metric.Int64Counter
	QueryDuration metric.Float64Histogram
	QueryErrors   metric.Int64Counter
}

// NewDatabaseMetrics creates the query instruments.
func NewDatabaseMetrics() (*DatabaseMetrics, error) {
	b := newInstruments("library-boot/database")
	d := &DatabaseMetrics{
		QueryCounter:  b.counter("db.query.count", "Total number of database queries", "{query}"),
		QueryDuration: b.histogram("db.query.duration", "Database query duration", 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000),
		QueryErrors:   b.counter("db.query.error.count", "Total number of database query errors", "{error}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return d, nil
}

// RecordQuery records one query; operation is SELECT, INSERT, UPDATE or DELETE.
func (d *DatabaseMetrics) RecordQuery(ctx context.Context, operation string, durationMs float64, err error) {
	if d == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrDBOperation, operation))

	d.QueryCounter.Add(ctx, 1, attrs)
	d.QueryDuration.Record(ctx, durationMs, attrs)
	if err != nil {
		d.QueryErrors.Add(ctx, 1, attrs)
	}
}

// AuthMetrics holds the authentication instruments.
type AuthMetrics struct {
	AuthAttempts metric.Int64Counter
	AuthFailures metric.Int64Counter
	AuthDuration metric.Float64Histogram
}

// NewAuthMetrics creates the authentication instruments.
func NewAuthMetrics() (*AuthMetrics, error) {
	b := newInstruments("library-boot/auth")
	a := &AuthMetrics{
		AuthAttempts: b.counter("auth.attempt.count", "Total number of authentication attempts", "{attempt}"),
		AuthFailures: b.counter("auth.failure.count", "Total number of failed authentication attempts", "{failure}"),
		AuthDuration: b.histogram("auth.duration", "Authentication duration", 5, 10, 25, 50, 100, 250, 500, 1000),
	}
	if b.err != nil {
		return nil, b.err
	}
	return a, nil
}

// RecordAuth records one attempt. method is jwt, form or api_login.
func (a *AuthMetrics) RecordAuth(ctx context.Context, method string, success bool, durationMs float64) {
	if a == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrAuthMethod, method),
		attribute.Bool(AttrAuthSuccess, success),
	)

	a.AuthAttempts.Add(ctx, 1, attrs)
	a.AuthDuration.Record(ctx, durationMs, attrs)
	if !success {
		a.AuthFailures.Add(ctx, 1, attrs)
	}
}

// SessionMetrics holds the web session registry instruments.
type SessionMetrics struct {
	Invalidated metric.Int64Counter // expired by credential changes
	Evicted     metric.Int64Counter // evicted past the per-identity cap
	Refreshed   metric.Int64Counter // principals rebuilt after a version bump
}

// NewSessionMetrics creates the session instruments.
func NewSessionMetrics() (*SessionMetrics, error) {
	b := newInstruments("library-boot/sessions")
	s := &SessionMetrics{
		Invalidated: b.counter("session.invalidated.count", "Sessions expired after a credential change", "{session}"),
		Evicted:     b.counter("session.evicted.count", "Sessions evicted by the concurrent session cap", "{session}"),
		Refreshed:   b.counter("session.refreshed.count", "Session principals rebuilt after a role change", "{session}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return s, nil
}

// RecordInvalidated adds n to the invalidated counter, keyed by the lookup used.
func (s *SessionMetrics) RecordInvalidated(ctx context.Context, by string, n int) {
	if s == nil || n == 0 {
		return
	}
	s.Invalidated.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrSessionInvalidatedBy, by)))
}

// RecordEvicted adds n to the evicted counter.
func (s *SessionMetrics) RecordEvicted(ctx context.Context, n int) {
	if s == nil || n == 0 {
		return
	}
	s.Evicted.Add(ctx, int64(n))
}

// RecordRefreshed counts one rebuilt principal.
func (s *SessionMetrics) RecordRefreshed(ctx context.Context) {
	if s == nil {
		return
	}
	s.Refreshed.Add(ctx, 1)
}
