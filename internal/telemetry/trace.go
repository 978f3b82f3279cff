package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a service operation.
// This is a convenience wrapper around otel.Tracer().Start() with common patterns.
//
// Usage in services:
//
//	ctx, span := telemetry.StartSpan(ctx, TracerBooks, "books.AddOwner",
//	    attribute.Int64(AttrBookID, bookID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
// This is a convenience wrapper to ensure consistent error recording.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span with optional attributes.
// Use for business events like validation failures, policy checks, etc.
//
// Example:
//
//	telemetry.AddEvent(span, "session.stale",
//	    attribute.Int(AttrIdentityVersion, version),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Tracer names
const (
	TracerIAM    = "library-boot/services/iam"
	TracerPeople = "library-boot/services/people"
	TracerBooks  = "library-boot/services/books"
)

// Common attribute keys for library services
const (
	// Identity attributes
	AttrIdentityID       = "identity.id"
	AttrIdentityUsername = "identity.username"
	AttrIdentityVersion  = "identity.version"
	AttrIdentityRole     = "identity.role"

	// Session attributes
	AttrSessionCount = "session.count"

	// Policy attributes
	AttrPolicyChain    = "policy.chain"
	AttrPolicyDecision = "policy.decision"

	// Book attributes
	AttrBookID      = "book.id"
	AttrBookOwnerID = "book.owner_id"
)
