package events

import (
	"context"
	"time"
)

// PollingEmitter is an Emitter that additionally requests a refresh on a
// fixed interval while the device is available.
//
// The loop is suspended between ticks (no spinning). When availability
// flips to false the loop stops issuing refreshes immediately; when it
// flips back to true, refreshing resumes on the next tick. The refresh on
// the availability transition itself is handled by the status reconciler,
// not by this loop.
type PollingEmitter[T any] struct {
	*Emitter[T]

	interval time.Duration

	// status is a read-only dependency used to gate polling to periods
	// where the device is available. The polling emitter never publishes
	// to it.
	status *Emitter[StatusEvent]
}

// NewPollingEmitter creates a polling emitter.
//
// Parameters:
//   - name: Topic name used in logs
//   - interval: Minimum period between refresh requests
//   - refresh: Trigger producing fresh data
//   - status: The status emitter whose cached value gates polling
func NewPollingEmitter[T any](
	name string,
	interval time.Duration,
	refresh RefreshFunc,
	status *Emitter[StatusEvent],
) *PollingEmitter[T] {
	return &PollingEmitter[T]{
		Emitter:  NewEmitter[T](name, refresh),
		interval: interval,
		status:   status,
	}
}

// Start launches the polling loop. The loop runs until ctx is cancelled;
// no refresh is issued after cancellation.
func (p *PollingEmitter[T]) Start(ctx context.Context) {
	go p.loop(ctx)
}

// loop ticks at the configured interval and requests a refresh whenever
// the device is currently available.
func (p *PollingEmitter[T]) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.deviceAvailable() {
				p.RequestRefresh()
			}
		}
	}
}

// deviceAvailable reports whether the status emitter's cached value says
// the device is reachable. No cached value means not available.
func (p *PollingEmitter[T]) deviceAvailable() bool {
	ev, ok := p.status.Latest()
	return ok && ev.Available
}
