package vacmap

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/ozmo-core/internal/commands"
	"github.com/nerrad567/ozmo-core/internal/events"
)

// Executor issues commands to the device. Implemented by the bot.
type Executor interface {
	Execute(ctx context.Context, cmd commands.Command) error
}

// roomNames maps room subtype codes to display names.
var roomNames = map[int]string{
	0:  "Default",
	1:  "Living Room",
	2:  "Dining Room",
	3:  "Bedroom",
	4:  "Study",
	5:  "Kitchen",
	6:  "Bathroom",
	7:  "Laundry",
	8:  "Lounge",
	9:  "Storeroom",
	10: "Kids room",
	11: "Sunroom",
	12: "Corridor",
	13: "Balcony",
	14: "Gym",
}

// RoomName returns the display name for a room subtype code. Unknown
// codes fall back to the code itself so rooms never disappear.
func RoomName(subtype int) string {
	if name, ok := roomNames[subtype]; ok {
		return name
	}
	return strconv.Itoa(subtype)
}

// Map owns the raw map state of one device.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Map struct {
	executor Executor
	logger   events.Logger

	mapEmitter *events.Emitter[events.MapEvent]
	position   *events.Emitter[events.PositionEvent]
	rooms      *events.Emitter[events.RoomsEvent]

	mu            sync.Mutex
	mapID         string
	pieces        map[int]string
	traceValues   []string
	pendingRooms  []events.Room
	expectedRooms int
}

// New builds the collaborator around the bundle's map emitters.
func New(executor Executor, bundle *events.Bundle, logger events.Logger) *Map {
	m := &Map{
		executor:   executor,
		logger:     logger,
		mapEmitter: bundle.Map,
		position:   bundle.Position,
		rooms:      bundle.Rooms,
		pieces:     make(map[int]string),
	}
	if m.logger == nil {
		m.logger = noop{}
	}
	return m
}

// RefreshMap re-requests the trace and the piece index.
func (m *Map) RefreshMap() {
	m.execute(GetMapTrace{Start: 0})
	m.execute(GetMajorMap{})
}

// RefreshPosition re-requests the device and charger positions.
func (m *Map) RefreshPosition() {
	m.execute(GetPos{})
}

// RefreshRooms re-requests the map list; rooms cascade from the response.
func (m *Map) RefreshRooms() {
	m.execute(GetCachedMapInfo{})
}

// Handle parses one map-related payload. It reports whether the name was
// recognized; parse failures inside a recognized payload are logged.
func (m *Map) Handle(name string, payload map[string]any) bool {
	topic := strings.ToLower(name)
	body, _ := payload["body"].(map[string]any)
	data, _ := body["data"].(map[string]any)

	switch {
	case strings.Contains(topic, "maptrace"):
		m.handleTrace(data)
	case strings.Contains(topic, "majormap"):
		m.handleMajorMap(data)
	case strings.Contains(topic, "minormap"):
		m.handleMinorMap(data)
	case strings.Contains(topic, "cachedmapinfo"):
		m.handleCachedMapInfo(data)
	case strings.Contains(topic, "mapsubset"):
		m.handleMapSubSet(data)
	case strings.Contains(topic, "mapset"):
		m.handleMapSet(data)
	case strings.Contains(topic, "pos"):
		m.handlePositions(data)
	default:
		return false
	}
	return true
}

// Pieces returns a copy of the cached compressed map pieces by index.
func (m *Map) Pieces() map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	pieces := make(map[int]string, len(m.pieces))
	for i, p := range m.pieces {
		pieces[i] = p
	}
	return pieces
}

// TraceValues returns a copy of the accumulated trace windows.
func (m *Map) TraceValues() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.traceValues...)
}

// MapID returns the identifier of the map currently in use, or "".
func (m *Map) MapID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapID
}

func (m *Map) handleTrace(data map[string]any) {
	value := asString(data["traceValue"])
	if value == "" {
		return
	}

	start, _ := asInt(data["traceStart"])
	m.mu.Lock()
	if start == 0 {
		m.traceValues = m.traceValues[:0]
	}
	m.traceValues = append(m.traceValues, value)
	m.mu.Unlock()
	m.mapEmitter.Notify(events.MapEvent{})

	// More windows remain; walk the trace forward.
	if total, ok := asInt(data["totalCount"]); ok && start+tracePointCount < total {
		m.execute(GetMapTrace{Start: start + tracePointCount})
	}
}

func (m *Map) handleMajorMap(data map[string]any) {
	mapID := asString(data["mid"])
	if mapID == "" {
		return
	}

	m.mu.Lock()
	if m.mapID != mapID {
		m.mapID = mapID
		m.pieces = make(map[int]string)
	}
	m.mu.Unlock()

	// The value is a comma-separated checksum list; re-request every
	// piece. Checksums are not tracked, so a refresh refetches all.
	checksums := strings.Split(asString(data["value"]), ",")
	for i := range checksums {
		m.execute(GetMinorMap{MapID: mapID, PieceIndex: i})
	}
}

func (m *Map) handleMinorMap(data map[string]any) {
	index, ok := asInt(data["pieceIndex"])
	if !ok {
		return
	}
	value := asString(data["pieceValue"])
	if value == "" {
		return
	}

	m.mu.Lock()
	m.pieces[index] = value
	m.mu.Unlock()
	m.mapEmitter.Notify(events.MapEvent{})
}

func (m *Map) handleCachedMapInfo(data map[string]any) {
	infos, _ := data["info"].([]any)
	for _, raw := range infos {
		info, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		using, _ := asInt(info["using"])
		if using != 1 {
			continue
		}
		mapID := asString(info["mid"])
		if mapID == "" {
			continue
		}
		m.mu.Lock()
		m.mapID = mapID
		m.mu.Unlock()
		m.execute(GetMapSet{MapID: mapID})
		return
	}
	m.logger.Warn("no map in use in cached map info")
}

func (m *Map) handleMapSet(data map[string]any) {
	if asString(data["type"]) != "ar" {
		return
	}
	mapID := asString(data["mid"])
	subsets, _ := data["subsets"].([]any)

	m.mu.Lock()
	m.pendingRooms = m.pendingRooms[:0]
	m.expectedRooms = len(subsets)
	m.mu.Unlock()

	for _, raw := range subsets {
		subset, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := asString(subset["mssid"])
		if id == "" {
			continue
		}
		m.execute(GetMapSubSet{MapID: mapID, SubsetID: id})
	}
}

func (m *Map) handleMapSubSet(data map[string]any) {
	if asString(data["type"]) != "ar" {
		return
	}
	subtype, ok := asInt(data["subtype"])
	if !ok {
		return
	}
	id, ok := asInt(data["mssid"])
	if !ok {
		return
	}

	m.mu.Lock()
	m.pendingRooms = append(m.pendingRooms, events.Room{
		Subtype: RoomName(subtype),
		ID:      id,
	})
	complete := m.expectedRooms > 0 && len(m.pendingRooms) >= m.expectedRooms
	var rooms []events.Room
	if complete {
		rooms = append([]events.Room(nil), m.pendingRooms...)
	}
	m.mu.Unlock()

	if complete {
		m.rooms.Notify(events.RoomsEvent{Rooms: rooms})
	}
}

func (m *Map) handlePositions(data map[string]any) {
	if pos, ok := positionFrom(data["deebotPos"]); ok {
		pos.Kind = "deebotPos"
		m.position.Notify(pos)
	}
	if pos, ok := positionFrom(data["chargePos"]); ok {
		pos.Kind = "chargePos"
		m.position.Notify(pos)
	}
}

// positionFrom accepts either an object or a single-element array, both
// of which appear in the wild for charger positions.
func positionFrom(v any) (events.PositionEvent, bool) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return events.PositionEvent{}, false
		}
		v = list[0]
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return events.PositionEvent{}, false
	}
	x, xok := asInt(obj["x"])
	y, yok := asInt(obj["y"])
	if !xok || !yok {
		return events.PositionEvent{}, false
	}
	return events.PositionEvent{X: x, Y: y}, true
}

func (m *Map) execute(cmd commands.Command) {
	go func() {
		if err := m.executor.Execute(context.Background(), cmd); err != nil {
			m.logger.Warn("map command failed", "command", cmd.Name(), "error", err)
		}
	}()
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
