package notify

import (
	"strconv"
	"strings"
	"time"
)

const tagPrefix = "permit-"

// TagKey derives the stable on-screen collapse tag for an event id. The id
// is stripped down to [a-zA-Z0-9-]; any present id yields the same tag on
// every call, even when sanitization leaves nothing, so repeated delivery
// of one event always collapses. Only an absent id gets a timestamp tag,
// which never collapses with anything.
func TagKey(id string) string {
	if id == "" {
		return tagPrefix + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return tagPrefix + SanitizeEventID(id)
}

// SanitizeEventID drops every rune outside [a-zA-Z0-9-].
func SanitizeEventID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
