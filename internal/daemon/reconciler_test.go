package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skygen/skydesk/internal/overlay"
)

type countingTarget struct {
	calls atomic.Int32
	panic bool
}

func (c *countingTarget) Reconcile() overlay.ReconcileResult {
	c.calls.Add(1)
	if c.panic {
		panic("boom")
	}
	return overlay.ReconcileResult{HelperReaped: true}
}

func TestReconcilerRunsUntilCancelled(t *testing.T) {
	target := &countingTarget{}
	r := NewReconciler(ReconcilerConfig{Interval: 5 * time.Millisecond}, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("reconciler ran %d times, want >= 3", target.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reconciler did not stop after cancel")
	}
}

func TestReconcilerRecoversPanics(t *testing.T) {
	target := &countingTarget{panic: true}
	r := NewReconciler(ReconcilerConfig{}, target)

	res := r.reconcile()
	if res.Changed() {
		t.Fatalf("panicking pass should report no changes, got %+v", res)
	}
	if target.calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", target.calls.Load())
	}
}

func TestReconcilerDefaultInterval(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, &countingTarget{})
	if r.interval != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", r.interval)
	}
}
