package chat

import (
	"context"
	"sync"
	"time"
)

// Poller invokes a refresh operation immediately and then on a fixed period
// until stopped. Ticks are not serialized against a slow operation: each
// invocation runs on its own goroutine, so an in-flight refresh does not delay
// the next tick. Stop guarantees that no invocation starts after it returns
// and that every started invocation has finished.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	stopOnce sync.Once
}

// StartPoller begins polling. The op receives a context that is cancelled by
// Stop, so blocking I/O inside a refresh unwinds promptly on shutdown.
func StartPoller(interval time.Duration, op func(context.Context)) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.loop(ctx, interval, op)
	return p
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, op func(context.Context)) {
	defer close(p.done)

	p.invoke(ctx, op)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		p.invoke(ctx, op)
	}
}

func (p *Poller) invoke(ctx context.Context, op func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		op(ctx)
	}()
}

// Stop cancels the poller and blocks until the tick loop has exited and all
// in-flight invocations have returned. After Stop returns the op is never
// invoked again.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		<-p.done
		p.wg.Wait()
	})
}
