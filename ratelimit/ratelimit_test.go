package ratelimit

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestEvery(t *testing.T) {
	if got := Every(0); got != rate.Inf {
		t.Errorf("Every(0) = %v, want Inf", got)
	}

	if got := Every(-1); got != rate.Inf {
		t.Errorf("Every(-1) = %v, want Inf", got)
	}

	got := Every(2)
	if got <= 0 {
		t.Errorf("Every(2) = %v, want positive rate", got)
	}
}

func TestLimiterWaitAllowsFirstCallImmediately(t *testing.T) {
	l := New()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx, "provider-a", Every(60)); err != nil {
		t.Fatalf("first Wait() returned error: %v", err)
	}
}

func TestLimiterWaitPerKeyIndependence(t *testing.T) {
	l := New()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx, "provider-a", Every(60)); err != nil {
		t.Fatalf("provider-a Wait() returned error: %v", err)
	}

	if err := l.Wait(ctx, "provider-b", Every(60)); err != nil {
		t.Fatalf("provider-b Wait() returned error: %v", err)
	}
}
