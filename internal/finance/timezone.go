package finance

import "time"

// DateLayout is the ISO calendar date format accepted at the boundary.
const DateLayout = "2006-01-02"

// getEasternTime returns America/New_York location, falling back to fixed EST if tzdata is missing.
func getEasternTime() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// DefaultLocation is the market calendar used when none is configured.
func DefaultLocation() *time.Location { return getEasternTime() }

// civilDate drops the clock and zone, keeping the calendar day as seen in t's own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EpochAt converts a calendar date to epoch seconds at midnight in loc.
// Both range bounds and catalog eligibility must go through here so series line up.
func EpochAt(date time.Time, loc *time.Location) int64 {
	if loc == nil {
		loc = getEasternTime()
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Unix()
}

// barDate maps a provider bar timestamp to its trading day in loc.
func barDate(ts int64, loc *time.Location) time.Time {
	return civilDate(time.Unix(ts, 0).In(loc))
}

// ParseDate parses an ISO YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
