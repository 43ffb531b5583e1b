package resolver

import (
	"context"
	"net/url"
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/fetcher"
	"github.com/rohmanhakim/pinned-repos/internal/project"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
	"github.com/rohmanhakim/pinned-repos/pkg/urlutil"
)

// Loader produces the records for one identifier from upstream.
type Loader interface {
	Load(ctx context.Context, identifier string) ([]project.Record, failure.ClassifiedError)
}

type RecordExtractor interface {
	Extract(sourceUrl url.URL, htmlByte []byte, identifier string) ([]project.Record, failure.ClassifiedError)
}

type RecordEnricher interface {
	Enrich(ctx context.Context, records []project.Record) []project.Record
}

// ProfileLoader fetches the profile page, extracts the pinned cards and
// enriches them.
type ProfileLoader struct {
	htmlFetcher fetcher.Fetcher
	extractor   RecordExtractor
	enricher    RecordEnricher
	baseURL     url.URL
	userAgent   string
	timeout     time.Duration
	retryParam  retry.RetryParam
}

func NewProfileLoader(
	htmlFetcher fetcher.Fetcher,
	extractor RecordExtractor,
	enricher RecordEnricher,
	baseURL url.URL,
	userAgent string,
	timeout time.Duration,
	retryParam retry.RetryParam,
) *ProfileLoader {
	return &ProfileLoader{
		htmlFetcher: htmlFetcher,
		extractor:   extractor,
		enricher:    enricher,
		baseURL:     baseURL,
		userAgent:   userAgent,
		timeout:     timeout,
		retryParam:  retryParam,
	}
}

func (l *ProfileLoader) Load(ctx context.Context, identifier string) ([]project.Record, failure.ClassifiedError) {
	profileURL := urlutil.JoinPath(l.baseURL, identifier)

	result, err := l.htmlFetcher.Fetch(ctx, fetcher.NewFetchParam(profileURL, l.userAgent, l.timeout), l.retryParam)
	if err != nil {
		return nil, err
	}

	records, err := l.extractor.Extract(result.URL(), result.Body(), identifier)
	if err != nil {
		return nil, err
	}

	if l.enricher == nil {
		return records, nil
	}
	return l.enricher.Enrich(ctx, records), nil
}
