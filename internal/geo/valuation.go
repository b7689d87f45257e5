package geo

import "time"

// EffectiveParams is the derived valuation date used to filter
// effective-dated rows, and the (year, quarter) it was derived from.
type EffectiveParams struct {
	Date    time.Time
	Year    int
	Quarter *int // nil when no quarter was given/derived
}

// quarterBounds returns the inclusive [start, end] calendar dates for a
// quarter of a given year. Callers use the end date as the valuation
// date, matching the convention that a quarter with no explicit day
// resolves to its last day.
func quarterBounds(year, quarter int) (start, end time.Time) {
	switch quarter {
	case 1:
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC)
	case 2:
		return time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(year, 6, 30, 0, 0, 0, 0, time.UTC)
	case 3:
		return time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(year, 9, 30, 0, 0, 0, 0, time.UTC)
	default: // 4
		return time.Date(year, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	}
}

// DeriveEffectiveParams derives the valuation date: an explicit date
// wins; otherwise (year, quarter) constructs one, with quarter absent
// meaning the full year and year absent meaning the current year.
func DeriveEffectiveParams(explicitDate *time.Time, year *int, quarter *int, now time.Time) EffectiveParams {
	if explicitDate != nil {
		y := explicitDate.Year()
		return EffectiveParams{Date: *explicitDate, Year: y, Quarter: quarter}
	}

	y := now.Year()
	if year != nil {
		y = *year
	}

	if quarter != nil {
		_, end := quarterBounds(y, *quarter)
		q := *quarter
		return EffectiveParams{Date: end, Year: y, Quarter: &q}
	}

	return EffectiveParams{Date: time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC), Year: y, Quarter: nil}
}
