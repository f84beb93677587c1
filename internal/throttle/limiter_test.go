package throttle

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	l := NewLimiter(10, 5)
	if l.burst != 5 {
		t.Errorf("expected burst 5, got %d", l.burst)
	}

	l2 := NewLimiter(10, -1)
	if l2.burst != 1 {
		t.Errorf("expected burst 1 for negative input, got %d", l2.burst)
	}

	l3 := NewLimiter(0, 1)
	if l3.rate != rate.Inf {
		t.Errorf("expected infinite rate when disabled, got %v", l3.rate)
	}
}

func TestLimiter_WaitPerHost(t *testing.T) {
	l := NewLimiter(1000, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://api.openalex.org/works/W1"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := l.Wait(ctx, "https://www.wikidata.org/w/api.php"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(l.limiters) != 2 {
		t.Errorf("expected one limiter per host, got %d", len(l.limiters))
	}
}

func TestLimiter_WaitBadURL(t *testing.T) {
	l := NewLimiter(10, 1)
	if err := l.Wait(context.Background(), "://bad"); err == nil {
		t.Error("expected error for unparsable URL")
	}
}

func TestLimiter_ThrottleOnlySlowsDown(t *testing.T) {
	l := NewLimiter(10, 5)
	host := "api.openalex.org"

	l.Throttle(host, time.Second)
	if got := l.Limit(host); got != rate.Every(time.Second) {
		t.Errorf("expected 1 rps after throttle, got %v", got)
	}

	// A faster interval must not raise the rate again
	l.Throttle(host, 10*time.Millisecond)
	if got := l.Limit(host); got != rate.Every(time.Second) {
		t.Errorf("throttle should never speed up, got %v", got)
	}

	l.Throttle(host, 0)
	if got := l.Limit(host); got != rate.Every(time.Second) {
		t.Errorf("zero interval should be ignored, got %v", got)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the single token
	_ = l.Wait(ctx, "https://example.org/a")
	cancel()

	if err := l.Wait(ctx, "https://example.org/b"); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestPacer(t *testing.T) {
	var nilPacer *Pacer
	if err := nilPacer.Wait(context.Background()); err != nil {
		t.Errorf("nil pacer should not wait: %v", err)
	}
	if NewPacer(0) != nil {
		t.Error("expected nil pacer for zero interval")
	}

	p := NewPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected second wait to be paced, elapsed %v", elapsed)
	}
}
