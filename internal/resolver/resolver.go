package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rohmanhakim/pinned-repos/internal/cache"
	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/project"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
)

/*
Responsibilities
- Validate and normalize identifiers
- Serve fresh entries without touching upstream
- Serve stale entries while refreshing them in the background
- Load synchronously on a miss or a forced refresh, then store

Concurrency
- Loads for the same key share one upstream round trip
- At most one background refresh per key is pending
- Background refreshes run on a bounded pool; a full pool drops the refresh
- Background failures are recorded, never returned

Failed loads are not cached. Empty results are.
Between a background refresh and a foreground load the last write wins.
*/

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

type Resolver struct {
	metadataSink metadata.MetadataSink
	store        cache.Store
	loader       Loader
	policy       Policy
	now          func() time.Time

	flight singleflight.Group

	mu         sync.Mutex
	closed     bool
	refreshing map[string]struct{}
	background errgroup.Group
	bgCtx      context.Context
	bgCancel   context.CancelFunc
}

func NewResolver(
	metadataSink metadata.MetadataSink,
	store cache.Store,
	loader Loader,
	policy Policy,
) *Resolver {
	if policy.RefreshConcurrency < 1 {
		policy.RefreshConcurrency = 1
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	r := &Resolver{
		metadataSink: metadataSink,
		store:        store,
		loader:       loader,
		policy:       policy,
		now:          time.Now,
		refreshing:   make(map[string]struct{}),
		bgCtx:        bgCtx,
		bgCancel:     bgCancel,
	}
	r.background.SetLimit(policy.RefreshConcurrency)
	return r
}

// NormalizeIdentifier trims identifier and checks it against the
// platform's user name shape. It returns the trimmed identifier and the
// cache key derived from it.
func NormalizeIdentifier(identifier string) (string, string, *ResolveError) {
	trimmed := strings.TrimSpace(identifier)
	if !identifierPattern.MatchString(trimmed) {
		return "", "", &ResolveError{
			Message:   fmt.Sprintf("%q is not a valid user name", identifier),
			Retryable: false,
			Cause:     ErrCauseInvalidIdentifier,
		}
	}
	return trimmed, strings.ToLower(trimmed), nil
}

func (r *Resolver) Resolve(
	ctx context.Context,
	identifier string,
	forceRefresh bool,
) (Result, failure.ClassifiedError) {
	name, key, invalid := NormalizeIdentifier(identifier)
	if invalid != nil {
		r.recordError(identifier, "Resolver.Resolve", invalid)
		return Result{}, invalid
	}

	if !forceRefresh {
		if result, ok := r.fromCache(name, key); ok {
			return result, nil
		}
	}

	status := StatusMiss
	if forceRefresh {
		status = StatusRefresh
	}

	records, err := r.load(ctx, name, key)
	if err != nil {
		r.recordError(key, "Resolver.Resolve", err)
		return Result{}, err
	}

	r.metadataSink.RecordCache(key, metadata.CacheOutcome(status), 0)
	return Result{
		Records: records,
		Status:  status,
	}, nil
}

// fromCache serves key from the store if policy allows it, scheduling a
// background refresh for stale entries.
func (r *Resolver) fromCache(name string, key string) (Result, bool) {
	entry, ok := r.store.Get(key)
	if !ok {
		return Result{}, false
	}

	age := entry.Age(r.now())
	switch {
	case age < r.policy.TTL:
		r.metadataSink.RecordCache(key, metadata.CacheHit, age)
		return Result{Records: entry.Records, Status: StatusHit, Age: age}, true

	case r.policy.StaleWhileRevalidate && (r.policy.MaxStale <= 0 || age < r.policy.MaxStale):
		r.metadataSink.RecordCache(key, metadata.CacheStale, age)
		r.scheduleRefresh(name, key)
		return Result{Records: entry.Records, Status: StatusStale, Age: age}, true
	}

	return Result{}, false
}

// load runs one upstream load per key at a time and stores its result.
// A caller whose ctx ends stops waiting; the shared load carries on for
// the others.
func (r *Resolver) load(ctx context.Context, name string, key string) ([]project.Record, *ResolveError) {
	loadCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(key, func() (interface{}, error) {
		return r.loadAndStore(loadCtx, name, key)
	})

	select {
	case <-ctx.Done():
		return nil, &ResolveError{
			Message:   ctx.Err().Error(),
			Retryable: false,
			Cause:     contextCause(ctx.Err()),
		}
	case res := <-ch:
		if res.Err != nil {
			var resolveErr *ResolveError
			errors.As(res.Err, &resolveErr)
			return nil, resolveErr
		}
		return project.CloneAll(res.Val.([]project.Record)), nil
	}
}

func (r *Resolver) loadAndStore(ctx context.Context, name string, key string) ([]project.Record, error) {
	records, err := r.loader.Load(ctx, name)
	if err != nil {
		return nil, classifyLoadError(err)
	}
	r.store.Put(key, cache.NewEntry(records, r.now()))
	return project.CloneAll(records), nil
}

func (r *Resolver) scheduleRefresh(name string, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.metadataSink.RecordCache(key, metadata.CacheDropped, 0)
		return
	}
	if _, pending := r.refreshing[key]; pending {
		return
	}

	started := r.background.TryGo(func() error {
		defer r.finishRefresh(key)

		ctx := r.bgCtx
		if r.policy.RefreshTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.policy.RefreshTimeout)
			defer cancel()
		}

		_, err, _ := r.flight.Do(key, func() (interface{}, error) {
			return r.loadAndStore(ctx, name, key)
		})
		if err != nil {
			var resolveErr *ResolveError
			errors.As(err, &resolveErr)
			r.recordError(key, "Resolver.refresh", resolveErr)
			return nil
		}
		r.metadataSink.RecordCache(key, metadata.CacheRevalidated, 0)
		return nil
	})
	if !started {
		r.metadataSink.RecordCache(key, metadata.CacheDropped, 0)
		return
	}
	r.refreshing[key] = struct{}{}
}

func (r *Resolver) finishRefresh(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refreshing, key)
}

// Cached reports how many identifiers are held in the store.
func (r *Resolver) Cached() int {
	return r.store.Len()
}

// Close stops accepting background refreshes and waits for the running
// ones. Refreshes still running when ctx ends are cancelled.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = r.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.bgCancel()
		return nil
	case <-ctx.Done():
		r.bgCancel()
		<-done
		return ctx.Err()
	}
}

func (r *Resolver) recordError(identifier string, action string, err *ResolveError) {
	r.metadataSink.RecordError(
		time.Now(),
		"resolver",
		action,
		mapResolveErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrIdentifier, identifier),
		},
	)
}

func contextCause(err error) ResolveErrorCause {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCauseTimeout
	}
	return ErrCauseCancelled
}
