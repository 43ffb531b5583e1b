package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata is write-only.
No component may read metadata to influence fetch, cache or response decisions.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Status codes
- Durations
- Identifiers
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		attempts int,
	)

	RecordCache(
		identifier string,
		outcome CacheOutcome,
		age time.Duration,
	)
}

// Recorder emits metadata events as structured zerolog lines.
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) *Recorder {
	return &Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	event := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Stringer("cause", cause)
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg(details)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	attempts int,
) {
	r.logger.Debug().
		Str("url", fetchUrl).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("attempts", attempts).
		Msg("fetch")
}

func (r *Recorder) RecordCache(identifier string, outcome CacheOutcome, age time.Duration) {
	r.logger.Debug().
		Str("identifier", identifier).
		Str("outcome", string(outcome)).
		Dur("age", age).
		Msg("cache")
}

// NoopSink implements MetadataSink but does nothing.
// Wiring code (or a test) decides whether to inject a Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	attempts int,
) {
}

func (n *NoopSink) RecordCache(identifier string, outcome CacheOutcome, age time.Duration) {}
