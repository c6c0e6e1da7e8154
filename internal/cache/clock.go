package cache

import (
	"fmt"
	"time"
	_ "time/tzdata" // reference zones must resolve on hosts without a tz database
)

// DefaultTimeZone is the market calendar the cache expiry is aligned to.
const DefaultTimeZone = "America/New_York"

// Clock computes cache expiry boundaries: civil midnight in a reference zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a Clock for the given zone.
func NewClock(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// LoadClock resolves an IANA zone name ("America/New_York") into a Clock.
func LoadClock(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultTimeZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return NewClock(loc), nil
}

// WithNow overrides the time source. Intended for tests.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: now}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant from the clock's time source.
func (c *Clock) Now() time.Time { return c.now() }

// NextBoundary returns the next civil midnight in the reference zone that is
// strictly after now. Days are counted on the calendar, not as 24h spans, so
// the boundary is correct on DST transition days.
func (c *Clock) NextBoundary(now time.Time) time.Time {
	local := now.In(c.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
}
