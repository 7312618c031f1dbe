package events

import (
	"sync"
	"sync/atomic"
)

// Logger defines the logging interface used by emitters.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Callback is invoked with each published event. A returned error is
// logged and does not affect delivery to other subscribers.
type Callback[T any] func(event T) error

// RefreshFunc re-issues the commands that produce a fresh event for an
// emitter. It is invoked asynchronously by RequestRefresh.
type RefreshFunc func()

// Refresher is the refresh-only view of an emitter, used where the
// concrete event type does not matter (e.g. the full-resync broadcast).
type Refresher interface {
	Name() string
	RequestRefresh()
}

// Subscription is the handle returned by Subscribe. Cancel unsubscribes;
// cancelling is safe at any time, including during an active dispatch.
type Subscription[T any] struct {
	emitter   *Emitter[T]
	callback  Callback[T]
	cancelled atomic.Bool
}

// Cancel removes the subscription from its emitter. After Cancel returns,
// the callback will not be invoked again.
func (s *Subscription[T]) Cancel() {
	s.cancelled.Store(true)
	s.emitter.remove(s)
}

// Emitter is the publish/subscribe primitive for exactly one event topic.
//
// It owns the subscriber list (insertion-ordered), the last published value
// (absent until the first Notify), and an optional refresh trigger.
//
// Delivery guarantees:
//   - Notify delivers to subscribers strictly in subscription order.
//   - Two Notify calls never run their deliveries concurrently, and
//     Subscribe's replay waits for any in-flight delivery.
//   - Reads of the cached value never block on an in-flight Notify.
type Emitter[T any] struct {
	name    string
	refresh RefreshFunc
	logger  Logger

	// dispatchMu serializes delivery so notifications arrive in the
	// order published.
	dispatchMu sync.Mutex

	// stateMu guards the subscriber list and the cached value only;
	// it is never held across a callback invocation.
	stateMu     sync.RWMutex
	subscribers []*Subscription[T]
	last        *T
}

// NewEmitter creates an emitter for one event topic.
//
// Parameters:
//   - name: Topic name used in logs (e.g. "battery")
//   - refresh: Trigger producing fresh data, or nil if the topic cannot
//     be refreshed on demand
func NewEmitter[T any](name string, refresh RefreshFunc) *Emitter[T] {
	return &Emitter[T]{
		name:    name,
		refresh: refresh,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger used for subscriber failures.
func (e *Emitter[T]) SetLogger(logger Logger) {
	e.stateMu.Lock()
	e.logger = logger
	e.stateMu.Unlock()
}

// Name returns the emitter's topic name.
func (e *Emitter[T]) Name() string {
	return e.name
}

// Subscribe registers a callback for this topic.
//
// If a value has already been published, the callback receives it
// immediately (synchronously), so subscribers never wait for the next
// external push to learn current state.
//
// Returns a Subscription whose Cancel unsubscribes.
func (e *Emitter[T]) Subscribe(callback Callback[T]) *Subscription[T] {
	sub := &Subscription[T]{emitter: e, callback: callback}

	// The replay below is a delivery, so it takes dispatchMu like Notify
	// does. Otherwise it could run while another subscriber's callback is
	// mid-flight, and callbacks are promised serial invocation.
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	e.stateMu.Lock()
	e.subscribers = append(e.subscribers, sub)
	last := e.last
	e.stateMu.Unlock()

	if last != nil {
		e.deliver(sub, *last)
	}
	return sub
}

// Notify stores event as the latest value and delivers it to every
// currently-subscribed callback in subscription order. A callback error or
// panic is logged and does not prevent remaining callbacks from running,
// nor does it propagate to the caller.
func (e *Emitter[T]) Notify(event T) {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	e.stateMu.Lock()
	e.last = &event
	subs := make([]*Subscription[T], len(e.subscribers))
	copy(subs, e.subscribers)
	e.stateMu.Unlock()

	for _, sub := range subs {
		e.deliver(sub, event)
	}
}

// Latest returns the last published value, if any.
// It never blocks on an in-flight Notify delivery.
func (e *Emitter[T]) Latest() (T, bool) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.last == nil {
		var zero T
		return zero, false
	}
	return *e.last, true
}

// RequestRefresh invokes the refresh trigger asynchronously
// (fire-and-forget). If no trigger was configured, this is a no-op.
func (e *Emitter[T]) RequestRefresh() {
	e.stateMu.RLock()
	refresh := e.refresh
	e.stateMu.RUnlock()

	if refresh == nil {
		return
	}
	go refresh()
}

// SubscriberCount returns the number of active subscriptions.
func (e *Emitter[T]) SubscriberCount() int {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return len(e.subscribers)
}

// deliver invokes one callback with panic isolation.
func (e *Emitter[T]) deliver(sub *Subscription[T], event T) {
	if sub.cancelled.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.log().Error("event subscriber panicked",
				"emitter", e.name,
				"panic", r,
			)
		}
	}()

	if err := sub.callback(event); err != nil {
		e.log().Warn("event subscriber failed",
			"emitter", e.name,
			"error", err,
		)
	}
}

// remove deletes a subscription from the list, preserving order.
func (e *Emitter[T]) remove(sub *Subscription[T]) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	for i, s := range e.subscribers {
		if s == sub {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

func (e *Emitter[T]) log() Logger {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.logger
}
