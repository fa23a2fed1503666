package tasks

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultReminderDelay = time.Hour
	tomorrowHour         = 9
)

var (
	relativeRe = regexp.MustCompile(`\bin\s+(\d+|an?)\s*(minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w)\b`)
	clockRe    = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// ParseReminderTime resolves a reminder time expression relative to now:
//
//	"in 10 minutes", "in 2 hours", "in a day", "in 1 week"
//	"at 17:30", "at 5pm", "at 7:15 am"   (rolls to tomorrow when already past)
//	"tomorrow", "tomorrow at 8"           (09:00 when no clock time is given)
//
// Anything else resolves to now + 1h.
func ParseReminderTime(expr string, now time.Time) time.Time {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return now.Add(DefaultReminderDelay)
	}

	if strings.Contains(s, "tomorrow") {
		day := now.AddDate(0, 0, 1)
		h, m, ok := parseClock(s)
		if !ok {
			h, m = tomorrowHour, 0
		}
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, now.Location())
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n := 1
		if m[1] != "a" && m[1] != "an" {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return now.Add(DefaultReminderDelay)
			}
			n = v
		}
		return now.Add(time.Duration(n) * unitOf(m[2]))
	}

	if h, m, ok := parseClock(s); ok {
		t := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t
	}

	return now.Add(DefaultReminderDelay)
}

func unitOf(u string) time.Duration {
	switch {
	case strings.HasPrefix(u, "m"):
		return time.Minute
	case strings.HasPrefix(u, "h"):
		return time.Hour
	case strings.HasPrefix(u, "d"):
		return 24 * time.Hour
	case strings.HasPrefix(u, "w"):
		return 7 * 24 * time.Hour
	}
	return time.Minute
}

func parseClock(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" && (hour < 1 || hour > 12) {
		return 0, 0, false
	}
	switch m[3] {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
