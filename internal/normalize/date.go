package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// siteTimezone is the zone the listing site publishes event times in.
const siteTimezone = "Europe/Prague"

// SiteLocation loads the listing site's timezone. When the timezone
// database does not carry it, UTC is returned alongside the error so the
// caller can log and keep going with a degraded clock.
func SiteLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(siteTimezone)
	if err != nil {
		return time.UTC, fmt.Errorf("load %s timezone: %w", siteTimezone, err)
	}
	return loc, nil
}

// fallbackDays is how far ahead an event lands when its date text is
// unparseable. Downstream listing queries filter on future start dates, so
// an event with no resolvable date still needs one.
const fallbackDays = 7

// eventHour is the representative time-of-day assigned to parsed dates.
const eventHour = 20

// dayMonthPattern matches "30. května" style Czech date fragments.
var dayMonthPattern = regexp.MustCompile(`(\d{1,2})\.?\s*(\p{L}+)`)

// czechMonths maps genitive Czech month names to their month index.
var czechMonths = map[string]time.Month{
	"ledna":     time.January,
	"února":     time.February,
	"března":    time.March,
	"dubna":     time.April,
	"května":    time.May,
	"června":    time.June,
	"července":  time.July,
	"srpna":     time.August,
	"září":      time.September,
	"října":     time.October,
	"listopadu": time.November,
	"prosince":  time.December,
}

// isoLayouts cover datetime attributes lifted from <time> elements.
var isoLayouts = []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04", "2006-01-02"}

// ParseDate resolves raw date text into a concrete start date in the given
// location. Machine-readable datetime values are taken as-is; localized
// text is scanned for a day+month pattern. Text with neither yields
// now+7d; the record is kept rather than rejected.
func ParseDate(dateText string, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	trimmed := strings.TrimSpace(dateText)
	for _, layout := range isoLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			if parsed.Hour() == 0 && parsed.Minute() == 0 {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), eventHour, 0, 0, 0, loc)
			}
			return parsed
		}
	}

	for _, match := range dayMonthPattern.FindAllStringSubmatch(dateText, -1) {
		day, err := strconv.Atoi(match[1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		month, ok := czechMonths[strings.ToLower(match[2])]
		if !ok {
			continue
		}
		return time.Date(now.Year(), month, day, eventHour, 0, 0, 0, loc)
	}

	return now.AddDate(0, 0, fallbackDays)
}
