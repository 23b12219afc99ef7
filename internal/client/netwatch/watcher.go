// Package netwatch polls the remote service and tracks whether the client
// is online. State changes are edge-triggered: going from unreachable (or
// unknown) to reachable fires a callback, which the app uses to drain the
// offline action queue.
package netwatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/tsheet/internal/logging"
)

type Status int32

const (
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Pinger probes the remote service. Any response counts as reachable;
// only a transport-level failure means offline.
type Pinger interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

// Watcher polls the service on a fixed interval and keeps the last
// observed status. Online() is safe from any goroutine; services consult
// it to decide between direct submission and queueing.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	log      logging.Logger

	status   atomic.Int32
	onOnline func(ctx context.Context)
}

func New(pinger Pinger, interval time.Duration, log logging.Logger) *Watcher {
	w := &Watcher{pinger: pinger, interval: interval, log: log.With("component", "netwatch")}
	w.status.Store(int32(StatusUnknown))
	return w
}

// OnOnline registers the callback fired when the status transitions to
// online from unknown or offline. Must be set before Run. The callback
// runs on its own goroutine so a slow drain never stalls probing.
func (w *Watcher) OnOnline(fn func(ctx context.Context)) {
	w.onOnline = fn
}

func (w *Watcher) Status() Status {
	return Status(w.status.Load())
}

// Online reports the last observed status. Unknown counts as offline:
// before the first probe completes the client behaves conservatively and
// queues everything.
func (w *Watcher) Online() bool {
	return w.Status() == StatusOnline
}

// Run probes once immediately, then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	next := StatusOnline
	if err != nil {
		next = StatusOffline
	}

	prev := Status(w.status.Swap(int32(next)))
	if prev == next {
		return
	}

	w.log.Info(ctx, "connectivity changed", "from", prev.String(), "to", next.String())

	if next == StatusOnline && w.onOnline != nil {
		go w.onOnline(ctx)
	}
}
