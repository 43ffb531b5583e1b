package fetcher

import (
	"context"

	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
