package util

import "time"

var taipeiLocation *time.Location

func init() {
	var err error
	taipeiLocation, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		taipeiLocation = time.FixedZone("CST", 8*60*60)
	}
}

// NowTaipei returns the current time in the bot's home timezone. Date
// inference ("has this month/day already passed?") is anchored here.
func NowTaipei() time.Time {
	return time.Now().In(taipeiLocation)
}

// DateOnly strips the time-of-day component, keeping the calendar date as
// a UTC midnight instant so date arithmetic stays timezone-free.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date the way replies show them.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02")
}
