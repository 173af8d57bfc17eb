package booking

import (
	"fmt"
	"strings"
	"time"
)

// layouts accepted for slot times; the ones without an offset are read as UTC
var slotLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseSlot reads an ISO-8601 timestamp. Values carrying an offset are
// converted to UTC; values without one are taken to be UTC already.
func ParseSlot(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeSlot(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("slot_time %q: %w", s, ErrInvalid)
}

// ParseDay reads a YYYY-MM-DD calendar date.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, ErrInvalid)
	}
	return d, nil
}
