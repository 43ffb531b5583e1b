package resolver

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/pinned-repos/internal/extractor"
	"github.com/rohmanhakim/pinned-repos/internal/fetcher"
	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
)

type ResolveErrorCause string

const (
	ErrCauseInvalidIdentifier ResolveErrorCause = "invalid identifier"
	ErrCauseNotFound          ResolveErrorCause = "profile not found"
	ErrCauseTimeout           ResolveErrorCause = "upstream timeout"
	ErrCauseUpstream          ResolveErrorCause = "upstream failure"
	ErrCauseContentInvalid    ResolveErrorCause = "unreadable profile page"
	ErrCauseCancelled         ResolveErrorCause = "request cancelled"
)

type ResolveError struct {
	Message   string
	Retryable bool
	Cause     ResolveErrorCause
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve error: %s, %s", e.Cause, e.Message)
}

func (e *ResolveError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ResolveError) IsRetryable() bool {
	return e.Retryable
}

// classifyLoadError folds collaborator errors into a ResolveError.
func classifyLoadError(err failure.ClassifiedError) *ResolveError {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr
	}

	cause := ErrCauseUpstream
	var fetchErr *fetcher.FetchError
	var extractionErr *extractor.ExtractionError
	switch {
	case errors.As(err, &fetchErr):
		switch fetchErr.Cause {
		case fetcher.ErrCauseRequestNotFound:
			cause = ErrCauseNotFound
		case fetcher.ErrCauseTimeout:
			cause = ErrCauseTimeout
		}
	case errors.As(err, &extractionErr):
		cause = ErrCauseContentInvalid
	}

	return &ResolveError{
		Message:   err.Error(),
		Retryable: failure.IsRetryable(err),
		Cause:     cause,
	}
}

// mapResolveErrorToMetadataCause is observational only.
func mapResolveErrorToMetadataCause(err *ResolveError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidIdentifier:
		return metadata.CauseInvalidInput
	case ErrCauseNotFound:
		return metadata.CauseNotFound
	case ErrCauseTimeout, ErrCauseUpstream:
		return metadata.CauseNetworkFailure
	case ErrCauseContentInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
