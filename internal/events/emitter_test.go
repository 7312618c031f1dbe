package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubscribe_NoImmediateCallbackWithoutValue(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	called := false
	e.Subscribe(func(BatteryEvent) error {
		called = true
		return nil
	})

	if called {
		t.Error("callback invoked before any value was published")
	}
}

func TestSubscribe_ImmediateReplayOfCachedValue(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)
	e.Notify(BatteryEvent{Value: 42})

	var got []BatteryEvent
	e.Subscribe(func(ev BatteryEvent) error {
		got = append(got, ev)
		return nil
	})

	if len(got) != 1 {
		t.Fatalf("callback invoked %d times, want exactly 1", len(got))
	}
	if got[0].Value != 42 {
		t.Errorf("replayed value = %d, want 42", got[0].Value)
	}
}

func TestNotify_DeliversInSubscriptionOrder(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	var order []int
	for i := 0; i < 5; i++ {
		e.Subscribe(func(BatteryEvent) error {
			order = append(order, i)
			return nil
		})
	}

	e.Notify(BatteryEvent{Value: 1})

	if len(order) != 5 {
		t.Fatalf("delivered to %d subscribers, want 5", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("delivery order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestNotify_FailingSubscriberDoesNotStopOthers(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	var secondCalled, thirdCalled bool
	e.Subscribe(func(BatteryEvent) error {
		return errors.New("subscriber failure")
	})
	e.Subscribe(func(BatteryEvent) error {
		secondCalled = true
		panic("subscriber panic")
	})
	e.Subscribe(func(BatteryEvent) error {
		thirdCalled = true
		return nil
	})

	e.Notify(BatteryEvent{Value: 10})

	if !secondCalled {
		t.Error("second subscriber not invoked after first errored")
	}
	if !thirdCalled {
		t.Error("third subscriber not invoked after second panicked")
	}
}

func TestCancel_StopsDelivery(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	count := 0
	sub := e.Subscribe(func(BatteryEvent) error {
		count++
		return nil
	})

	e.Notify(BatteryEvent{Value: 1})
	sub.Cancel()
	e.Notify(BatteryEvent{Value: 2})

	if count != 1 {
		t.Errorf("callback invoked %d times, want 1", count)
	}
	if e.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", e.SubscriberCount())
	}
}

func TestCancel_DuringDispatchIsSafe(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	var laterSub *Subscription[BatteryEvent]
	e.Subscribe(func(BatteryEvent) error {
		laterSub.Cancel()
		return nil
	})
	laterCount := 0
	laterSub = e.Subscribe(func(BatteryEvent) error {
		laterCount++
		return nil
	})

	e.Notify(BatteryEvent{Value: 1})

	if laterCount != 0 {
		t.Errorf("cancelled subscriber invoked %d times, want 0", laterCount)
	}
}

func TestLatest(t *testing.T) {
	e := NewEmitter[StatusEvent]("status", nil)

	if _, ok := e.Latest(); ok {
		t.Error("Latest() reported a value before any Notify")
	}

	e.Notify(StatusEvent{Available: true, State: StateCleaning})

	ev, ok := e.Latest()
	if !ok {
		t.Fatal("Latest() reported no value after Notify")
	}
	if !ev.Available || ev.State != StateCleaning {
		t.Errorf("Latest() = %+v, want available cleaning", ev)
	}
}

func TestRequestRefresh_NoTriggerIsNoop(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)
	// Must not panic or spawn anything.
	e.RequestRefresh()
}

func TestRequestRefresh_InvokesTrigger(t *testing.T) {
	triggered := make(chan struct{}, 1)
	e := NewEmitter[BatteryEvent]("battery", func() {
		triggered <- struct{}{}
	})

	e.RequestRefresh()

	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("refresh trigger not invoked within 1s")
	}
}

func TestNotify_ConcurrentCallersDoNotInterleave(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	var inDispatch atomic.Int32
	e.Subscribe(func(BatteryEvent) error {
		if inDispatch.Add(1) != 1 {
			t.Error("two notify deliveries ran concurrently")
		}
		time.Sleep(time.Millisecond)
		inDispatch.Add(-1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			e.Notify(BatteryEvent{Value: v})
		}(i)
	}
	wg.Wait()
}

func TestSubscribe_ReplayWaitsForInFlightDelivery(t *testing.T) {
	e := NewEmitter[BatteryEvent]("battery", nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var delivered atomic.Int32
	e.Subscribe(func(BatteryEvent) error {
		close(entered)
		<-release
		delivered.Add(1)
		return nil
	})

	go e.Notify(BatteryEvent{Value: 60})
	<-entered

	// Subscribe while the first subscriber's callback is blocked. Its
	// replay must queue behind the in-flight dispatch, not overlap it.
	replayed := make(chan struct{})
	go func() {
		e.Subscribe(func(BatteryEvent) error {
			if delivered.Load() == 0 {
				t.Error("replay ran concurrently with an in-flight delivery")
			}
			close(replayed)
			return nil
		})
	}()

	select {
	case <-replayed:
		t.Fatal("replay did not wait for the blocked dispatch")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-replayed:
	case <-time.After(time.Second):
		t.Fatal("replay never ran after dispatch completed")
	}
}
