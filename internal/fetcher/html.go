package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/limiter"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
)

/*
Responsibilities

- Perform HTTP GETs against the upstream platform
- Apply headers and per-request timeouts
- Hold back while the upstream host is throttling us
- Classify responses

Fetch Semantics

- Only successful HTML responses are returned
- Non-HTML content is discarded
- Redirect chains are bounded by http.Client
- Every fetch is recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

// maxBodyBytes bounds how much of a page is read into memory.
const maxBodyBytes = 10 << 20

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
}

// NewHtmlFetcher wires a fetcher. A nil httpClient falls back to a plain
// client; a nil rateLimiter disables host politeness.
func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	rateLimiter limiter.RateLimiter,
) *HtmlFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		rateLimiter:  rateLimiter,
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	startTime := time.Now()

	outcome := retry.Retry(ctx, retryParam, func() (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchParam)
	})

	var statusCode int
	var contentType string
	if outcome.IsSuccess() {
		result := outcome.Value()
		statusCode = result.Code()
		contentType = result.Headers()["Content-Type"]
	} else {
		var fetchErr *FetchError
		if errors.As(outcome.Err(), &fetchErr) {
			statusCode = fetchErr.StatusCode
		}
	}

	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		statusCode,
		time.Since(startTime),
		contentType,
		outcome.Attempts(),
	)

	if outcome.IsFailure() {
		h.recordError(callerMethod, fetchParam.fetchUrl, outcome.Err())
		return FetchResult{}, outcome.Err()
	}

	return outcome.Value(), nil
}

func (h *HtmlFetcher) recordError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		cause = mapFetchErrorToMetadataCause(fetchError)
	}

	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		},
	)
}

func (h *HtmlFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	fetchUrl := fetchParam.fetchUrl
	host := fetchUrl.Host

	// the limiter wait counts against the per-fetch timeout
	if fetchParam.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchParam.timeout)
		defer cancel()
	}

	if h.rateLimiter != nil {
		if deadline, ok := ctx.Deadline(); ok {
			if delay := h.rateLimiter.ResolveDelay(host); delay > time.Until(deadline) {
				return FetchResult{}, &FetchError{
					Message:   fmt.Sprintf("host %s backing off for %s, longer than the fetch timeout", host, delay.Round(time.Millisecond)),
					Retryable: true,
					Cause:     ErrCauseRequestTooMany,
				}
			}
		}
		if err := h.rateLimiter.Wait(ctx, host); err != nil {
			return FetchResult{}, classifyTransportError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}

	if h.rateLimiter != nil {
		h.rateLimiter.MarkLastFetchAsNow(host)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if fetchErr := h.classifyStatus(resp, host); fetchErr != nil {
		return FetchResult{}, fetchErr
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return FetchResult{}, classifyTransportError(err)
		}
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	return FetchResult{
		url:  fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     responseHeaders,
		},
	}, nil
}

// classifyStatus maps non-2xx statuses to FetchErrors and keeps the
// limiter's view of the host current.
func (h *HtmlFetcher) classifyStatus(resp *http.Response, host string) *FetchError {
	code := resp.StatusCode

	switch {
	case code == http.StatusTooManyRequests:
		if h.rateLimiter != nil {
			h.rateLimiter.Backoff(host, parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: code,
		}

	case code >= 500:
		return &FetchError{
			Message:    fmt.Sprintf("server error: %d", code),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: code,
		}

	case code == http.StatusNotFound || code == http.StatusGone:
		return &FetchError{
			Message:    fmt.Sprintf("page not found: %d", code),
			Retryable:  false,
			Cause:      ErrCauseRequestNotFound,
			StatusCode: code,
		}

	case code == http.StatusForbidden:
		return &FetchError{
			Message:    "access forbidden (403)",
			Retryable:  false,
			Cause:      ErrCauseRequestPageForbidden,
			StatusCode: code,
		}

	case code >= 400:
		return &FetchError{
			Message:    fmt.Sprintf("client error: %d", code),
			Retryable:  false,
			Cause:      ErrCauseRequestClientError,
			StatusCode: code,
		}

	case code >= 300:
		// http.Client follows redirects; getting one here means the limit was hit
		return &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", code),
			Retryable:  false,
			Cause:      ErrCauseRedirectLimitExceeded,
			StatusCode: code,
		}
	}

	if h.rateLimiter != nil {
		h.rateLimiter.ResetBackoff(host)
	}
	return nil
}

func classifyTransportError(err error) *FetchError {
	if isTimeout(err) {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &FetchError{
			Message:   fmt.Sprintf("request cancelled: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

// Accept-Encoding is left to the transport so gzip bodies are decoded transparently.
func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}
