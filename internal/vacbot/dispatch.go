package vacbot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/ozmo-core/internal/commands"
)

// ErrObsoleteTopic reports a legacy topic that every supported firmware
// generation delivers in the modern format. Reaching the fallback with
// one of these names means the device or the transport broke contract.
var ErrObsoleteTopic = errors.New("vacbot: obsolete topic in fallback dispatch")

// obsoleteTopics are the bare topic names (prefixes and version suffix
// stripped, lowercased) that must be served by the registry.
var obsoleteTopics = map[string]struct{}{
	"speed":       {},
	"waterinfo":   {},
	"lifespan":    {},
	"stats":       {},
	"battery":     {},
	"chargestate": {},
	"charge":      {},
	"clean":       {},
	"cleanlogs":   {},
	"error":       {},
	"playsound":   {},
	"cleaninfo":   {},
}

// Handle dispatches one inbound message (push or unwrapped response).
//
// The firmware version in the header is captured before any routing. A
// registered command parses its own payload; everything else goes through
// the fallback, which recognizes map payloads and echoed set commands.
func (b *Bot) Handle(name string, payload map[string]any) error {
	b.logger.Debug("inbound message", "name", name)
	b.setFirmware(headerFirmware(payload))

	if handler, ok := b.registry.Lookup(name); ok {
		if !handler.Handle(b.bundle, payload) {
			b.logger.Warn("payload not parsed", "name", name)
		}
		return nil
	}
	return b.handleFallback(name, payload)
}

func (b *Bot) handleFallback(name string, payload map[string]any) error {
	topic := strings.ToLower(commands.Canonical(name))
	for _, prefix := range []string{"on", "off", "report", "get"} {
		topic = strings.TrimPrefix(topic, prefix)
	}

	if _, obsolete := obsoleteTopics[topic]; obsolete {
		return fmt.Errorf("%w: %s", ErrObsoleteTopic, name)
	}

	switch {
	case strings.Contains(topic, "map") || topic == "pos":
		m := b.currentMapHandler()
		if m == nil {
			b.logger.Debug("map payload without map handler", "name", name)
			return nil
		}
		if !m.Handle(name, payload) {
			b.logger.Warn("map payload not parsed", "name", name)
		}
	case strings.HasPrefix(topic, "set"):
		// Set commands are echoed back by the cloud; the paired getter
		// carries the resulting state.
	default:
		b.logger.Debug("unhandled message", "name", name, "topic", topic)
	}
	return nil
}

// headerFirmware extracts header.fwVer from a payload, or "".
func headerFirmware(payload map[string]any) string {
	header, ok := payload["header"].(map[string]any)
	if !ok {
		return ""
	}
	version, _ := header["fwVer"].(string)
	return version
}
