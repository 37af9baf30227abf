// Package biztime holds the operator-facing timezone. Storage and
// comparisons use UTC; the business location only affects rendering.
package biztime

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the default business timezone.
const DefaultTimezone = "Europe/Rome"

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init loads the business timezone once. An empty tz selects DefaultTimezone.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// Location returns the business timezone, initializing the default on first use.
func Location() *time.Location {
	if err := Init(""); err != nil {
		panic(fmt.Sprintf("biztime: failed to initialize timezone: %v", err))
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Format renders t in the business timezone, e.g. "17/10/2026 14:05".
func Format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(Location()).Format("02/01/2006 15:04")
}
