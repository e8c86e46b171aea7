// Package tracer is a small tracing facade so services can emit spans without
// importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: tests and deployments without a collector
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span and returns a context carrying it.
	//
	//   ctx, span := t.Start(ctx, tracer.SpanIssueDegree,
	//       tracer.String(tracer.AttrUniversity, uni),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the credential service.
const (
	SpanIssueDegree      = "credential.issue_degree"
	SpanVerifyDegree     = "credential.verify_degree"
	SpanListRequests     = "credential.list_requests"
	SpanCompleteRequest  = "credential.complete_request"
	SpanPatchRecord      = "credential.patch_record"
	SpanRebuildIndexes   = "credential.rebuild_indexes"
	SpanLedgerInvocation = "ledger.invoke"
)

// Attribute keys used by the credential service.
const (
	AttrUniversity = "university"
	AttrDegreeID   = "degree.id"
	AttrSequence   = "degree.sequence"
	AttrValid      = "signature.valid"
	AttrKind       = "request.kind"
	AttrRole       = "request.role"
	AttrQueryMode  = "request.query_mode"
	AttrResults    = "results"
	AttrKey        = "ledger.key"
)

// Event names.
const (
	EventAuditEmitted = "audit.emitted"
)
