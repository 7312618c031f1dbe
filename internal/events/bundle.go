package events

// Bundle groups the full emitter set owned by one bot instance.
//
// Emitters are created once at bot construction and live for the bot's
// lifetime. The map, position and rooms emitters are owned by the map
// collaborator and shared into the bundle.
type Bundle struct {
	Battery       *Emitter[BatteryEvent]
	CleanLogs     *Emitter[CleanLogEvent]
	CustomCommand *Emitter[CustomCommandEvent]
	Error         *Emitter[ErrorEvent]
	FanSpeed      *Emitter[FanSpeedEvent]
	LifeSpan      *PollingEmitter[LifeSpanEvent]
	Map           *Emitter[MapEvent]
	Position      *Emitter[PositionEvent]
	Rooms         *Emitter[RoomsEvent]
	Stats         *Emitter[StatsEvent]
	Status        *Emitter[StatusEvent]
	WaterInfo     *Emitter[WaterInfoEvent]

	// refreshable is the explicit ordered collection used for the
	// full-resynchronization broadcast. It excludes the status emitter
	// (no self-refresh loop) and emitters without a refresh trigger.
	refreshable []Refresher
}

// NewBundle assembles a bundle and registers the refresh broadcast list.
// All fields must be non-nil.
func NewBundle(b Bundle) *Bundle {
	bundle := b
	bundle.refreshable = []Refresher{
		bundle.Battery,
		bundle.CleanLogs,
		bundle.Error,
		bundle.FanSpeed,
		bundle.LifeSpan,
		bundle.Map,
		bundle.Position,
		bundle.Rooms,
		bundle.Stats,
		bundle.WaterInfo,
	}
	return &bundle
}

// Refreshers returns every emitter that participates in the full-resync
// broadcast, in registration order. The status emitter is excluded.
func (b *Bundle) Refreshers() []Refresher {
	return b.refreshable
}

// SetLogger sets the logger on every emitter in the bundle.
func (b *Bundle) SetLogger(logger Logger) {
	b.Battery.SetLogger(logger)
	b.CleanLogs.SetLogger(logger)
	b.CustomCommand.SetLogger(logger)
	b.Error.SetLogger(logger)
	b.FanSpeed.SetLogger(logger)
	b.LifeSpan.SetLogger(logger)
	b.Map.SetLogger(logger)
	b.Position.SetLogger(logger)
	b.Rooms.SetLogger(logger)
	b.Stats.SetLogger(logger)
	b.Status.SetLogger(logger)
	b.WaterInfo.SetLogger(logger)
}
