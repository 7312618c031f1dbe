// Package events defines the typed domain events published by an Ozmo Core
// bot and the emitter primitive used to deliver them.
//
// Each event topic (battery, status, water info, ...) is served by exactly
// one Emitter. An Emitter caches the last published value, replays it to new
// subscribers, and delivers notifications to subscribers strictly in
// subscription order. PollingEmitter adds interval-based refreshing gated on
// device availability.
//
// # Key Types
//
//   - Emitter[T]: publish/subscribe primitive scoped to one event topic
//   - PollingEmitter[T]: Emitter that also refreshes on a fixed interval
//   - Bundle: the full emitter set owned by one bot
//   - StatusEvent: availability + operating state, the bot's source of truth
//
// # Usage
//
//	sub := bundle.Battery.Subscribe(func(ev events.BatteryEvent) error {
//	    fmt.Println("battery:", ev.Value)
//	    return nil
//	})
//	defer sub.Cancel()
//
// Thread Safety: all Emitter methods are safe for concurrent use.
package events
