package chat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollerInvokesImmediately(t *testing.T) {
	var calls atomic.Int32
	p := StartPoller(time.Hour, func(context.Context) {
		calls.Add(1)
	})
	defer p.Stop()

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
}

func TestPollerTicks(t *testing.T) {
	var calls atomic.Int32
	p := StartPoller(5*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	defer p.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 },
		time.Second, time.Millisecond)
}

func TestPollerStopHaltsInvocations(t *testing.T) {
	var calls atomic.Int32
	p := StartPoller(5*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	require.Eventually(t, func() bool { return calls.Load() >= 2 },
		time.Second, time.Millisecond)

	p.Stop()
	after := calls.Load()

	// Several intervals elapse; the count must not move.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, calls.Load())
}

func TestPollerStopWaitsForInFlightOp(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool

	p := StartPoller(time.Hour, func(ctx context.Context) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		finished.Store(true)
	})

	// Let the op start, then stop while it is blocked; Stop must not return
	// before the op has unwound.
	time.Sleep(10 * time.Millisecond)
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	p.Stop()
	require.True(t, finished.Load())
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := StartPoller(time.Hour, func(context.Context) {})
	p.Stop()
	p.Stop()
}

func TestPollerOpContextCancelledOnStop(t *testing.T) {
	gotCancel := make(chan struct{})
	p := StartPoller(time.Hour, func(ctx context.Context) {
		<-ctx.Done()
		close(gotCancel)
	})

	time.Sleep(10 * time.Millisecond)
	p.Stop()

	select {
	case <-gotCancel:
	default:
		t.Fatal("op context was not cancelled by Stop")
	}
}
