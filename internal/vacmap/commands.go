package vacmap

// tracePointCount is how many trace points one GetMapTrace request
// returns.
const tracePointCount = 200

// GetCachedMapInfo lists the maps the device knows about. The response
// identifies the map currently in use, which cascades into a map-set
// request for its rooms.
type GetCachedMapInfo struct{}

func (GetCachedMapInfo) Name() string { return "getCachedMapInfo" }
func (GetCachedMapInfo) Args() any    { return map[string]any{} }

// GetMajorMap fetches the piece index of the current map.
type GetMajorMap struct{}

func (GetMajorMap) Name() string { return "getMajorMap" }
func (GetMajorMap) Args() any    { return map[string]any{} }

// GetMinorMap fetches one compressed map piece.
type GetMinorMap struct {
	MapID      string
	PieceIndex int
}

func (GetMinorMap) Name() string { return "getMinorMap" }

func (c GetMinorMap) Args() any {
	return map[string]any{"mid": c.MapID, "type": "ol", "pieceIndex": c.PieceIndex}
}

// GetMapTrace fetches a window of the device's movement trace.
type GetMapTrace struct {
	Start int
}

func (GetMapTrace) Name() string { return "getMapTrace" }

func (c GetMapTrace) Args() any {
	return map[string]any{"pointCount": tracePointCount, "traceStart": c.Start}
}

// GetMapSet lists the subsets (rooms) of one map.
type GetMapSet struct {
	MapID string
}

func (GetMapSet) Name() string { return "getMapSet" }

func (c GetMapSet) Args() any {
	return map[string]any{"mid": c.MapID, "type": "ar"}
}

// GetMapSubSet fetches one room's outline and metadata.
type GetMapSubSet struct {
	MapID    string
	SubsetID string
}

func (GetMapSubSet) Name() string { return "getMapSubSet" }

func (c GetMapSubSet) Args() any {
	return map[string]any{"mid": c.MapID, "type": "ar", "mssid": c.SubsetID}
}

// GetPos fetches the device and charger positions.
type GetPos struct{}

func (GetPos) Name() string { return "getPos" }
func (GetPos) Args() any    { return []any{"chargePos", "deebotPos"} }
