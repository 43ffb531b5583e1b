package timeutil

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func TestMaxDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		want      time.Duration
	}{
		{
			name:      "multiple values returns maximum",
			durations: []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 200 * time.Millisecond},
			want:      500 * time.Millisecond,
		},
		{
			name:      "single value returns that value",
			durations: []time.Duration{300 * time.Millisecond},
			want:      300 * time.Millisecond,
		},
		{
			name:      "empty slice returns zero",
			durations: []time.Duration{},
			want:      0,
		},
		{
			name:      "all negative returns least negative",
			durations: []time.Duration{-100 * time.Millisecond, -50 * time.Millisecond, -200 * time.Millisecond},
			want:      -50 * time.Millisecond,
		},
		{
			name:      "zero in mix returns positive max",
			durations: []time.Duration{0, 100 * time.Millisecond, 0},
			want:      100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDuration(tt.durations)
			if got != tt.want {
				t.Errorf("MaxDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeJitter(t *testing.T) {
	tests := []struct {
		name string
		max  time.Duration
		rng  *rand.Rand
	}{
		{name: "max=0 returns 0", max: 0, rng: rand.New(rand.NewSource(1))},
		{name: "negative max returns 0", max: -100 * time.Millisecond, rng: rand.New(rand.NewSource(1))},
		{name: "nil rng returns 0", max: time.Second, rng: nil},
		{name: "positive max returns value within range", max: time.Second, rng: rand.New(rand.NewSource(42))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeJitter(tt.max, tt.rng)

			if tt.max <= 0 || tt.rng == nil {
				if got != 0 {
					t.Errorf("ComputeJitter() = %v, want 0", got)
				}
				return
			}
			if got < 0 || got >= tt.max {
				t.Errorf("ComputeJitter() = %v, want in [0, %v)", got, tt.max)
			}
		})
	}
}

func TestExponentialBackoffDelay(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)

	tests := []struct {
		name  string
		count int
		want  time.Duration
	}{
		{name: "zero count means no delay", count: 0, want: 0},
		{name: "first backoff is the initial duration", count: 1, want: 100 * time.Millisecond},
		{name: "second backoff doubles", count: 2, want: 200 * time.Millisecond},
		{name: "fourth backoff", count: 4, want: 800 * time.Millisecond},
		{name: "capped at max duration", count: 10, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExponentialBackoffDelay(tt.count, 0, rand.New(rand.NewSource(1)), param)
			if got != tt.want {
				t.Errorf("ExponentialBackoffDelay(%d) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}

func TestExponentialBackoffDelay_WithJitter(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		got := ExponentialBackoffDelay(1, 50*time.Millisecond, rng, param)
		if got < 100*time.Millisecond || got >= 150*time.Millisecond {
			t.Fatalf("delay %v outside [100ms, 150ms)", got)
		}
	}
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SleepContext(ctx, time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("SleepContext did not return promptly on cancelled context")
	}
}

func TestSleepContext_Elapses(t *testing.T) {
	if err := SleepContext(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
