package schedule

import "time"

// DefaultHorizonYears bounds how far ahead schedules are derived. A fixed
// two-year window anchored at asset creation keeps the pending backlog small;
// override with the HORIZON_YEARS environment variable in main.
const DefaultHorizonYears = 2

const hoursPerYear = 365.25 * 24

// Derive returns the ordered due dates for an asset created at creationDate
// whose category wants frequencyPerYear cycles per year, over horizonYears
// years. A zero frequency yields no dates.
//
// The function is pure and total. Each date is creationDate + k*interval for
// k = 1..frequencyPerYear*horizonYears; the interval is multiplied rather
// than accumulated so identical inputs always produce an identical sequence,
// which is what makes reconciliation idempotent.
func Derive(creationDate time.Time, frequencyPerYear, horizonYears int) []time.Time {
	if frequencyPerYear <= 0 || horizonYears <= 0 {
		return nil
	}
	interval := time.Duration(hoursPerYear / float64(frequencyPerYear) * float64(time.Hour))
	n := frequencyPerYear * horizonYears
	dates := make([]time.Time, 0, n)
	for k := 1; k <= n; k++ {
		due := creationDate.Add(time.Duration(k) * interval)
		dates = append(dates, due.UTC().Truncate(time.Millisecond))
	}
	return dates
}

// dateKey canonicalizes an estimation date for set membership. BSON stores
// datetimes at millisecond precision, so two reads of the same stored date
// always produce the same key.
func dateKey(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
