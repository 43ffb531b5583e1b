package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
	"github.com/rohmanhakim/pinned-repos/pkg/timeutil"
)

// fastBackoffParam keeps test retries in the low milliseconds
func fastBackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(
		time.Millisecond,
		2.0,
		10*time.Millisecond,
	)
}

func newParam(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(
		0,
		time.Millisecond,
		42,
		maxAttempts,
		fastBackoffParam(),
	)
}

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	result := retry.Retry(context.Background(), newParam(3), fn)

	if result.IsFailure() {
		t.Fatalf("expected no error, got: %v", result.Err())
	}
	if result.Value() != "success" {
		t.Fatalf("expected 'success', got: %s", result.Value())
	}
	if result.Attempts() != 1 {
		t.Fatalf("expected 1 attempt, got: %d", result.Attempts())
	}
	if callCount != 1 {
		t.Fatalf("expected 1 call, got: %d", callCount)
	}
}

// TestRetry_SuccessAfterRetries verifies that retryable errors lead to retries until success
func TestRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		if callCount < 3 {
			return "", &mockError{msg: "transient error", retryable: true}
		}
		return "success", nil
	}

	result := retry.Retry(context.Background(), newParam(5), fn)

	if result.IsFailure() {
		t.Fatalf("expected no error, got: %v", result.Err())
	}
	if result.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got: %d", result.Attempts())
	}
}

func TestRetry_NonRetryableErrorReturnsImmediately(t *testing.T) {
	callCount := 0
	fn := func() (int, failure.ClassifiedError) {
		callCount++
		return 0, &mockError{msg: "fatal", retryable: false}
	}

	result := retry.Retry(context.Background(), newParam(5), fn)

	if result.IsSuccess() {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Fatalf("expected 1 call, got: %d", callCount)
	}
	var mockErr *mockError
	if !errors.As(result.Err(), &mockErr) {
		t.Fatalf("expected the original error, got: %T", result.Err())
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		return "", &mockError{msg: "still failing", retryable: true}
	}

	result := retry.Retry(context.Background(), newParam(3), fn)

	if result.IsSuccess() {
		t.Fatal("expected error")
	}
	if callCount != 3 {
		t.Fatalf("expected 3 calls, got: %d", callCount)
	}

	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) {
		t.Fatalf("expected RetryError, got: %T", result.Err())
	}
	if retryErr.Cause != retry.ErrExhaustedAttempts {
		t.Fatalf("expected ErrExhaustedAttempts, got %s", retryErr.Cause)
	}

	// the last attempt's error stays reachable
	var mockErr *mockError
	if !errors.As(result.Err(), &mockErr) {
		t.Fatal("expected last error to be unwrappable")
	}
}

func TestRetry_SingleAttemptSurfacesOriginalError(t *testing.T) {
	fn := func() (string, failure.ClassifiedError) {
		return "", &mockError{msg: "network down", retryable: true}
	}

	result := retry.Retry(context.Background(), newParam(1), fn)

	var mockErr *mockError
	if !errors.As(result.Err(), &mockErr) {
		t.Fatalf("expected original error, got: %T", result.Err())
	}
	if errors.Is(result.Err(), &retry.RetryError{}) {
		t.Fatal("single attempt should not wrap into RetryError")
	}
}

func TestRetry_MaxAttemptsLessThanOne(t *testing.T) {
	fn := func() (string, failure.ClassifiedError) {
		return "success", nil
	}

	result := retry.Retry(context.Background(), newParam(0), fn)

	if result.IsSuccess() {
		t.Fatal("expected error for MaxAttempts < 1, got nil")
	}
	var retryErr *retry.RetryError
	errors.As(result.Err(), &retryErr)
	if retryErr == nil || retryErr.Cause != retry.ErrZeroAttempt {
		t.Fatalf("expected ErrZeroAttempt, got %v", result.Err())
	}
	if result.Attempts() != 0 {
		t.Fatalf("expected 0 attempts, got: %d", result.Attempts())
	}
}

func TestRetry_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	fn := func() (string, failure.ClassifiedError) {
		callCount++
		cancel()
		return "", &mockError{msg: "transient", retryable: true}
	}

	param := retry.NewRetryParam(time.Minute, 0, 1, 5, fastBackoffParam())
	result := retry.Retry(ctx, param, fn)

	if callCount != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", callCount)
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) || retryErr.Cause != retry.ErrContextDone {
		t.Fatalf("expected ErrContextDone, got %v", result.Err())
	}
}

func TestRetry_GenericTypeSlice(t *testing.T) {
	fn := func() ([]int, failure.ClassifiedError) {
		return []int{1, 2, 3}, nil
	}

	result := retry.Retry(context.Background(), newParam(2), fn)

	if len(result.Value()) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Value()))
	}
}

func TestRetryErrorType(t *testing.T) {
	err := &retry.RetryError{Message: "m", Cause: retry.ErrExhaustedAttempts, Retryable: true}

	if err.Severity() != failure.SeverityRecoverable {
		t.Errorf("expected recoverable severity")
	}
	if !errors.Is(err, &retry.RetryError{}) {
		t.Errorf("expected errors.Is to match RetryError")
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap without last error")
	}
}
