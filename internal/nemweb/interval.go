package nemweb

import "time"

// Report cadences published by NEMweb.
const (
	FiveMinutes   = 5 * time.Minute
	ThirtyMinutes = 30 * time.Minute
)

// IntervalLayout is the YYYYMMDDHHMMSS stamp used in archive names.
const IntervalLayout = "20060102150405"

// Intervals returns every step boundary from start to end inclusive, with
// start aligned down and end aligned up to the step on the wall clock. step
// must divide an hour evenly; otherwise Intervals returns nil.
func Intervals(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || step%time.Second != 0 || time.Hour%step != 0 {
		return nil
	}

	start = alignDown(start, step)
	if sinceHour(end)%step != 0 || end.Nanosecond() != 0 {
		end = alignDown(end, step).Add(step)
	}

	var out []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// FormatInterval renders t in IntervalLayout.
func FormatInterval(t time.Time) string {
	return t.Format(IntervalLayout)
}

// Gaps returns the step boundaries between the earliest and latest report
// that no report is stamped at.
func Gaps(reports []ReportPath, step time.Duration) []time.Time {
	if len(reports) == 0 {
		return nil
	}

	have := make(map[int64]bool, len(reports))
	first, last := reports[0].Timestamp, reports[0].Timestamp
	for _, r := range reports {
		have[r.Timestamp.Unix()] = true
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}

	var gaps []time.Time
	for _, t := range Intervals(first, last, step) {
		if !have[t.Unix()] {
			gaps = append(gaps, t)
		}
	}
	return gaps
}

func sinceHour(t time.Time) time.Duration {
	return time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

func alignDown(t time.Time, step time.Duration) time.Time {
	t = t.Add(-time.Duration(t.Nanosecond()))
	return t.Add(-(sinceHour(t) % step))
}
