package commands

import (
	"regexp"
	"strings"
)

// legacyPrefixPattern matches the legacy event-name prefixes at the start
// of a wire name, in priority order. Only a prefix at position 0 is
// rewritten; occurrences elsewhere in the name are untouched.
var legacyPrefixPattern = regexp.MustCompile(`^((on)|(off)|(report))`)

// legacyVersionSuffix is the trailing version marker used by newer
// hardware generations ("_V2", case-insensitive).
const legacyVersionSuffix = "_v2"

// Canonical converts a raw wire command/event name into the canonical
// registry key: a recognized legacy prefix (on, off, report) is rewritten
// to "get", and a trailing version marker is stripped.
//
// Canonical is idempotent: applying it to an already-canonical name
// returns the name unchanged.
func Canonical(name string) string {
	canonical := legacyPrefixPattern.ReplaceAllString(name, "get")
	if strings.HasSuffix(strings.ToLower(canonical), legacyVersionSuffix) {
		canonical = canonical[:len(canonical)-len(legacyVersionSuffix)]
	}
	return canonical
}
