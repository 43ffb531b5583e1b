package enrich

import (
	"fmt"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
)

type EnrichErrorCause string

const (
	ErrCauseInvalidLink EnrichErrorCause = "invalid record link"
	ErrCauseFetchFailed EnrichErrorCause = "repository page fetch failed"
	ErrCauseUnparsable  EnrichErrorCause = "repository page unparsable"
	ErrCauseNotFound    EnrichErrorCause = "repository page not found"
)

type EnrichError struct {
	Message   string
	Retryable bool
	Cause     EnrichErrorCause
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich error: %s, %s", e.Cause, e.Message)
}

func (e *EnrichError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *EnrichError) IsRetryable() bool {
	return e.Retryable
}

// mapEnrichErrorToMetadataCause is observational only.
func mapEnrichErrorToMetadataCause(err *EnrichError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseFetchFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseNotFound:
		return metadata.CauseNotFound
	case ErrCauseUnparsable, ErrCauseInvalidLink:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
