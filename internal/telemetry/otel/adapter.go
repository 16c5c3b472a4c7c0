package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// AccessEvent describes a guard decision on a protected route.
type AccessEvent struct {
	OrgSlug  string
	UserID   string
	Role     string
	Path     string
	Decision string
}

// AccessEmitter records guard decisions for audit. Implementations must be
// safe for concurrent use and must not block request handling.
type AccessEmitter interface {
	Emit(ctx context.Context, event AccessEvent)
}

// NewAccessEmitter returns an AccessEmitter that sends events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op
// emitter.
func NewAccessEmitter(provider *sdklog.LoggerProvider) AccessEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("careassist.access")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, AccessEvent) {}

// recordEmitter is the slice of otellog.Logger the emitter needs; tests
// substitute a capture.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

func newAccessEmitterWithLogger(logger recordEmitter) AccessEmitter {
	return &otelEmitter{logger: logger}
}

type otelEmitter struct {
	logger recordEmitter
}

func (e *otelEmitter) Emit(ctx context.Context, event AccessEvent) {
	rec := otellog.Record{}
	rec.SetTimestamp(time.Now().UTC())
	rec.SetBody(otellog.StringValue("access decision"))
	if event.OrgSlug != "" {
		rec.AddAttributes(otellog.String("org_slug", event.OrgSlug))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Role != "" {
		rec.AddAttributes(otellog.String("role", event.Role))
	}
	if event.Path != "" {
		rec.AddAttributes(otellog.String("path", event.Path))
	}
	rec.AddAttributes(otellog.String("decision", event.Decision))
	e.logger.Emit(ctx, rec)
}
