package domain

import "time"

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// Clock supplies the current time. Injecting it keeps week-boundary and
// "next Tuesday" math deterministic in tests.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// DayName returns the English weekday name for a calendar date string.
// Malformed dates return an empty string.
func DayName(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

// WeekDates returns the seven dates starting at weekStart.
func WeekDates(weekStart string) ([]string, error) {
	start, err := time.Parse(DateLayout, weekStart)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return dates, nil
}

// InWeek reports whether date falls inside the seven days from weekStart.
func InWeek(date, weekStart string) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	start, err := time.Parse(DateLayout, weekStart)
	if err != nil {
		return false
	}
	end := start.AddDate(0, 0, 6)
	return !d.Before(start) && !d.After(end)
}

// DateForWeekday resolves a weekday name to its date inside the week starting
// at weekStart, with Monday as offset zero.
func DateForWeekday(weekStart, dayName string) (string, error) {
	start, err := time.Parse(DateLayout, weekStart)
	if err != nil {
		return "", err
	}
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, n := range names {
		if n == dayName {
			return start.AddDate(0, 0, i).Format(DateLayout), nil
		}
	}
	return "", &ValidationError{Message: "unknown weekday: " + dayName}
}

// WeekStart returns the Monday of the week containing now.
func WeekStart(now time.Time) string {
	offset := int(now.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return now.AddDate(0, 0, -offset).Format(DateLayout)
}

// ElapsedHours computes the hours between two RFC3339 timestamps. Sessions
// may cross midnight and timezones; an end before the start is an error, as
// is either timestamp failing to parse.
func ElapsedHours(start, end string) (float64, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return 0, &ValidationError{Message: "invalid start time: " + start}
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return 0, &ValidationError{Message: "invalid end time: " + end}
	}
	if e.Before(s) {
		return 0, &ValidationError{Message: "end time precedes start time"}
	}
	return e.Sub(s).Hours(), nil
}

// NextTuesday picks the coming Tuesday. On a Tuesday past noon it rolls over
// to the following week, so a magic block is never scheduled into a half-gone
// morning.
func NextTuesday(now time.Time) string {
	days := (int(time.Tuesday) - int(now.Weekday()) + 7) % 7
	if days == 0 && now.Hour() >= 12 {
		days = 7
	}
	return now.AddDate(0, 0, days).Format(DateLayout)
}
