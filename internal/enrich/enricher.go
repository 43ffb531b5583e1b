package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/pinned-repos/internal/fetcher"
	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/project"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
	"github.com/rohmanhakim/pinned-repos/pkg/urlutil"
)

/*
Responsibilities
- Fetch each record's repository page
- Read the declared external website and the preview image

Rules
- Runs only after every primary field is built
- Fan-out is bounded by the configured concurrency
- A failed or slow fetch leaves the fields absent; nothing is returned
  to the caller
- Input order is kept
*/

const (
	websiteSelector = `.BorderGrid-cell a[href^="https"]`
	imageSelector   = `meta[property="og:image"]`
)

type Options struct {
	Enabled     bool
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
}

type Enricher struct {
	metadataSink metadata.MetadataSink
	htmlFetcher  fetcher.Fetcher
	baseURL      url.URL
	options      Options
	retryParam   retry.RetryParam
}

func NewEnricher(
	metadataSink metadata.MetadataSink,
	htmlFetcher fetcher.Fetcher,
	baseURL url.URL,
	options Options,
) *Enricher {
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	return &Enricher{
		metadataSink: metadataSink,
		htmlFetcher:  htmlFetcher,
		baseURL:      baseURL,
		options:      options,
		// secondary fetches are never retried
		retryParam: retry.RetryParam{MaxAttempts: 1},
	}
}

// Enrich returns copies of records with website and image filled where the
// repository page declares them.
func (e *Enricher) Enrich(ctx context.Context, records []project.Record) []project.Record {
	enriched := project.CloneAll(records)
	if !e.options.Enabled || len(enriched) == 0 {
		return enriched
	}

	var eg errgroup.Group
	eg.SetLimit(e.options.Concurrency)

	for i := range enriched {
		eg.Go(func() error {
			website, image, err := e.lookup(ctx, enriched[i])
			if err != nil {
				e.recordError(enriched[i], err)
				return nil
			}
			enriched[i] = enriched[i].WithEnrichment(website, image)
			return nil
		})
	}
	// workers never return errors
	_ = eg.Wait()

	return enriched
}

func (e *Enricher) lookup(ctx context.Context, record project.Record) (string, string, *EnrichError) {
	link, err := url.Parse(record.Link)
	if err != nil || link.Host == "" {
		return "", "", &EnrichError{
			Message:   fmt.Sprintf("cannot parse %q", record.Link),
			Retryable: false,
			Cause:     ErrCauseInvalidLink,
		}
	}

	fetchParam := fetcher.NewFetchParam(*link, e.options.UserAgent, e.options.Timeout)
	result, fetchErr := e.htmlFetcher.Fetch(ctx, fetchParam, e.retryParam)
	if fetchErr != nil {
		cause := ErrCauseFetchFailed
		var fe *fetcher.FetchError
		if errors.As(fetchErr, &fe) && fe.Cause == fetcher.ErrCauseRequestNotFound {
			cause = ErrCauseNotFound
		}
		return "", "", &EnrichError{
			Message:   fetchErr.Error(),
			Retryable: failure.IsRetryable(fetchErr),
			Cause:     cause,
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body()))
	if err != nil {
		return "", "", &EnrichError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseUnparsable,
		}
	}

	return e.website(doc), image(doc), nil
}

// website returns the first external https link in the sidebar, skipping
// links that point back at the platform.
func (e *Enricher) website(doc *goquery.Document) string {
	var website string
	doc.Find(websiteSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || urlutil.SameHost(e.baseURL, href) {
			return true
		}
		website = href
		return false
	})
	return website
}

func image(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(imageSelector).First().AttrOr("content", ""))
}

func (e *Enricher) recordError(record project.Record, err *EnrichError) {
	e.metadataSink.RecordError(
		time.Now(),
		"enrich",
		"Enricher.Enrich",
		mapEnrichErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, record.Link),
			metadata.NewAttr(metadata.AttrRepo, record.Repo),
		},
	)
}
