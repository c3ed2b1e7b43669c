// Package timeframe maps analysis menu choices to concrete date windows.
package timeframe

import "time"

// Window is a half-open [Start, End) interval plus the label used when
// presenting the summary.
type Window struct {
	Start time.Time
	End   time.Time
	Label string
	// Closed marks calendar windows whose End is a fixed instant rather
	// than the evaluation time.
	Closed bool
}

// DisplayEnd is the last calendar day the window covers. A closed month
// window ends at the first instant of the following month, one day past
// the last day it includes, so the shown date steps back.
func (w Window) DisplayEnd() time.Time {
	if w.Closed {
		return w.End.AddDate(0, 0, -1)
	}
	return w.End
}

// Resolve maps a menu choice (1-7) and the current instant to a window.
// Open-ended choices use now as the end, so two calls a second apart
// yield slightly different windows. Reports false for out-of-range
// choices.
func Resolve(choice int, now time.Time) (Window, bool) {
	loc := now.Location()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch choice {
	case 1:
		// Week starts on the most recent Sunday.
		start := midnight.AddDate(0, 0, -int(now.Weekday()))
		return Window{Start: start, End: now, Label: "de la semana actual"}, true
	case 2:
		return Window{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   now,
			Label: "del mes actual",
		}, true
	case 3:
		return monthWindow(y, m, -1, loc, "de hace 1 mes"), true
	case 4:
		return monthWindow(y, m, -3, loc, "de hace 3 meses"), true
	case 5:
		return monthWindow(y, m, -6, loc, "de hace 6 meses"), true
	case 6:
		return Window{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   now,
			Label: "de este año (YTD)",
		}, true
	case 7:
		return Window{
			Start: time.Date(y-1, m, d, 0, 0, 0, 0, loc),
			End:   now,
			Label: "de hace 1 año",
		}, true
	}
	return Window{}, false
}

// monthWindow covers the single calendar month offset months back from
// the current one. time.Date normalizes out-of-range months, so January
// minus one lands on the previous December.
func monthWindow(y int, m time.Month, offset int, loc *time.Location, label string) Window {
	start := time.Date(y, m+time.Month(offset), 1, 0, 0, 0, 0, loc)
	end := time.Date(y, m+time.Month(offset)+1, 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: end, Label: label, Closed: true}
}
