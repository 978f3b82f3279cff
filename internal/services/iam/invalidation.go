package iam

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vcubone/library-boot/internal/telemetry"
)

// InvalidationService expires sessions after credential changes.
type InvalidationService struct {
	registry *SessionRegistry
	metrics  *telemetry.SessionMetrics
}

// NewInvalidationService wraps registry. metrics may be nil.
func NewInvalidationService(registry *SessionRegistry, metrics *telemetry.SessionMetrics) *InvalidationService {
	return &InvalidationService{registry: registry, metrics: metrics}
}

// InvalidateSessionsFor expires all sessions of the identity with id.
// It is a no-op for an identity without sessions.
func (s *InvalidationService) InvalidateSessionsFor(ctx context.Context, id int64) int {
	_, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.InvalidateSessionsFor",
		attribute.Int64(telemetry.AttrIdentityID, id),
	)
	defer span.End()

	n := s.registry.ExpireByID(id)
	span.SetAttributes(attribute.Int(telemetry.AttrSessionCount, n))
	s.metrics.RecordInvalidated(ctx, "id", n)
	if n > 0 {
		log.Printf("expired %d session(s) for person %d", n, id)
	}
	return n
}

// InvalidateSessionsForUsername expires all sessions of the identity with username.
func (s *InvalidationService) InvalidateSessionsForUsername(ctx context.Context, username string) int {
	_, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.InvalidateSessionsForUsername",
		attribute.String(telemetry.AttrIdentityUsername, username),
	)
	defer span.End()

	n := s.registry.ExpireByUsername(username)
	span.SetAttributes(attribute.Int(telemetry.AttrSessionCount, n))
	s.metrics.RecordInvalidated(ctx, "username", n)
	if n > 0 {
		log.Printf("expired %d session(s) for %q", n, username)
	}
	return n
}
