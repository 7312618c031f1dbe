package vacbot

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nerrad567/ozmo-core/internal/commands"
	"github.com/nerrad567/ozmo-core/internal/events"
)

// Default executor settings, used when Options leaves them zero.
const (
	DefaultMaxInFlight          = 3
	DefaultLifeSpanPollInterval = 60 * time.Second
)

// Transport sends commands to the cloud on behalf of one device and
// returns the decoded JSON response.
type Transport interface {
	// SendCommand issues a device command through the IoT endpoint.
	SendCommand(ctx context.Context, name string, args any) (map[string]any, error)

	// FetchCleanLogs queries the log endpoint, which speaks the bare
	// legacy envelope instead of the IoT request format.
	FetchCleanLogs(ctx context.Context) (map[string]any, error)
}

// MapHandler is the map collaborator: it parses map-related payloads and
// owns the refresh logic for map, position and room data.
type MapHandler interface {
	// Handle parses a map-related push payload. It reports whether the
	// payload was recognized.
	Handle(name string, payload map[string]any) bool

	RefreshMap()
	RefreshPosition()
	RefreshRooms()
}

// CommandObserver receives executor lifecycle notifications, e.g. for
// metrics. Implementations must be safe for concurrent use.
type CommandObserver interface {
	CommandStarted(name string)
	CommandFinished(name string, err error)
}

// Options configures a Bot.
type Options struct {
	// DeviceID identifies the device on the cloud side. Required.
	DeviceID string

	// Transport sends commands. Required.
	Transport Transport

	// MaxInFlight caps concurrent cloud requests. Zero means
	// DefaultMaxInFlight.
	MaxInFlight int64

	// LifeSpanPollInterval is the consumable poll period. Zero means
	// DefaultLifeSpanPollInterval.
	LifeSpanPollInterval time.Duration

	// Logger receives dispatcher and executor diagnostics. Optional.
	Logger events.Logger

	// Observer receives executor lifecycle callbacks. Optional.
	Observer CommandObserver
}

// Bot is the runtime for one robot vacuum.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Bot struct {
	deviceID  string
	transport Transport
	registry  *commands.Registry
	bundle    *events.Bundle
	logger    events.Logger
	observer  CommandObserver
	sem       *semaphore.Weighted

	mu         sync.RWMutex
	status     events.StatusEvent
	fwVersion  string
	mapHandler MapHandler
}

// NewBot builds the runtime for one device. The life-span polling loop is
// not started until Start is called.
func NewBot(opts Options) (*Bot, error) {
	if opts.DeviceID == "" {
		return nil, errors.New("vacbot: device ID is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("vacbot: transport is required")
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.LifeSpanPollInterval <= 0 {
		opts.LifeSpanPollInterval = DefaultLifeSpanPollInterval
	}

	b := &Bot{
		deviceID:  opts.DeviceID,
		transport: opts.Transport,
		registry:  commands.DefaultRegistry(),
		logger:    opts.Logger,
		observer:  opts.Observer,
		sem:       semaphore.NewWeighted(opts.MaxInFlight),
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}

	status := events.NewEmitter[events.StatusEvent]("status", b.refreshStatus)
	b.bundle = events.NewBundle(events.Bundle{
		Battery:       events.NewEmitter[events.BatteryEvent]("battery", b.refresh(commands.GetBattery{})),
		CleanLogs:     events.NewEmitter[events.CleanLogEvent]("cleanLogs", b.refresh(commands.GetCleanLogs{})),
		CustomCommand: events.NewEmitter[events.CustomCommandEvent]("customCommand", nil),
		Error:         events.NewEmitter[events.ErrorEvent]("error", b.refresh(commands.GetError{})),
		FanSpeed:      events.NewEmitter[events.FanSpeedEvent]("fanSpeed", b.refresh(commands.GetFanSpeed{})),
		LifeSpan: events.NewPollingEmitter[events.LifeSpanEvent](
			"lifeSpan", opts.LifeSpanPollInterval, b.refresh(commands.GetLifeSpan{}), status),
		Map:       events.NewEmitter[events.MapEvent]("map", b.refreshMap),
		Position:  events.NewEmitter[events.PositionEvent]("position", b.refreshPosition),
		Rooms:     events.NewEmitter[events.RoomsEvent]("rooms", b.refreshRooms),
		Stats:     events.NewEmitter[events.StatsEvent]("stats", b.refresh(commands.GetStats{})),
		Status:    status,
		WaterInfo: events.NewEmitter[events.WaterInfoEvent]("waterInfo", b.refresh(commands.GetWaterInfo{})),
	})
	b.bundle.SetLogger(b.logger)
	b.bundle.Status.Subscribe(b.onStatus)

	return b, nil
}

// Start launches the background polling loops. It returns immediately;
// the loops stop when ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.bundle.LifeSpan.Start(ctx)
}

// SetMapHandler attaches the map collaborator. Must be called before any
// push traffic arrives; map payloads received earlier are dropped.
func (b *Bot) SetMapHandler(m MapHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mapHandler = m
}

// DeviceID returns the cloud identifier of this device.
func (b *Bot) DeviceID() string {
	return b.deviceID
}

// Events returns the emitter bundle for subscription.
func (b *Bot) Events() *events.Bundle {
	return b.bundle
}

// Status returns the last reconciled availability and operating state.
func (b *Bot) Status() events.StatusEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// FirmwareVersion returns the firmware version last seen in a message
// header, or "" if none has been observed.
func (b *Bot) FirmwareVersion() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fwVersion
}

// SetAvailable publishes an availability change. Becoming unavailable
// clears the operating state, since stale activity would mislead
// subscribers once the device reappears.
func (b *Bot) SetAvailable(available bool) {
	state := b.Status().State
	if !available {
		state = events.StateUnknown
	}
	b.bundle.Status.Notify(events.StatusEvent{Available: available, State: state})
}

// onStatus is the reconciler: it tracks the (available, state) pair and
// turns transitions into refresh broadcasts. It is the only writer of
// b.status.
func (b *Bot) onStatus(event events.StatusEvent) error {
	b.mu.Lock()
	prev := b.status
	b.status = event
	b.mu.Unlock()

	switch {
	case !prev.Available && event.Available:
		// Everything observed while unreachable is suspect. The status
		// emitter sits outside the broadcast list, so the state is
		// re-derived explicitly here.
		b.bundle.Status.RequestRefresh()
		for _, r := range b.bundle.Refreshers() {
			r.RequestRefresh()
		}
	case prev.State != events.StateDocked && event.State == events.StateDocked:
		// The run that just ended is now in the cloud's log.
		b.bundle.CleanLogs.RequestRefresh()
	}
	return nil
}

// refreshStatus re-derives the operating state from the device. Charge
// state and clean info each report transitions the other cannot see.
func (b *Bot) refreshStatus() {
	b.refresh(commands.GetChargeState{})()
	b.refresh(commands.GetCleanInfo{})()
}

// refresh adapts a command into an emitter refresh trigger.
func (b *Bot) refresh(cmd commands.Command) events.RefreshFunc {
	return func() {
		if err := b.Execute(context.Background(), cmd); err != nil {
			b.logger.Warn("refresh failed", "command", cmd.Name(), "error", err)
		}
	}
}

func (b *Bot) refreshMap() {
	if m := b.currentMapHandler(); m != nil {
		m.RefreshMap()
	}
}

func (b *Bot) refreshPosition() {
	if m := b.currentMapHandler(); m != nil {
		m.RefreshPosition()
	}
}

func (b *Bot) refreshRooms() {
	if m := b.currentMapHandler(); m != nil {
		m.RefreshRooms()
	}
}

func (b *Bot) currentMapHandler() MapHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mapHandler
}

// setFirmware records the firmware version carried in a message header.
func (b *Bot) setFirmware(version string) {
	if version == "" {
		return
	}
	b.mu.Lock()
	changed := b.fwVersion != version
	b.fwVersion = version
	b.mu.Unlock()
	if changed {
		b.logger.Info("firmware version", "device", b.deviceID, "version", version)
	}
}

// noopLogger discards everything; used when Options.Logger is nil.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
