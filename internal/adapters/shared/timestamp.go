package shared

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/coachpo/xvenue/internal/telemetry"
)

// venueTimestampLayout is the fixed millisecond layout every venue timestamp
// is padded or truncated to before parsing.
const venueTimestampLayout = "2006-01-02T15:04:05.000"

const millisTimestampLength = len(venueTimestampLayout)

// CanonicalTimestamp pads or truncates a venue timestamp to exactly three
// fractional digits without a zone suffix. Inputs of unrecognised length are
// returned unchanged and will fail to parse.
func CanonicalTimestamp(raw string) string {
	switch {
	case len(raw) > millisTimestampLength:
		// truncation, never rounding
		return raw[:millisTimestampLength]
	case strings.HasSuffix(raw, "Z"):
		switch len(raw) {
		case 20:
			return raw[:19] + ".000"
		case 22:
			return raw[:21] + "00"
		case 23:
			return raw[:22] + "0"
		}
	default:
		switch len(raw) {
		case 19:
			return raw + ".000"
		case 21:
			return raw + "00"
		case 22:
			return raw + "0"
		}
	}
	return raw
}

// ParseVenueTimestamp converts a venue timestamp into a UTC instant with
// millisecond precision. It reports false instead of failing when the input
// cannot be parsed.
func ParseVenueTimestamp(raw string) (time.Time, bool) {
	modified := CanonicalTimestamp(raw)
	ts, err := time.ParseInLocation(venueTimestampLayout, modified, time.UTC)
	if err != nil {
		log.Printf("shared: unable to parse venue timestamp raw=%q modified=%q: %v", raw, modified, err)
		telemetry.Venue().RecordTimestampFailure(context.Background())
		return time.Time{}, false
	}
	return ts, true
}

// VenueTimestamp is ParseVenueTimestamp returning nil for absent or invalid input.
func VenueTimestamp(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, ok := ParseVenueTimestamp(raw)
	if !ok {
		return nil
	}
	return &ts
}
