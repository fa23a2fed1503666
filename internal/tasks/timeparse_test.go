package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReminderTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)
	day := func(d, h, m int) time.Time { return time.Date(2026, 10, d, h, m, 0, 0, time.UTC) }

	tests := []struct {
		expr string
		want time.Time
	}{
		{"in 10 minutes", now.Add(10 * time.Minute)},
		{"in 1 minute", now.Add(time.Minute)},
		{"in 2 hours", now.Add(2 * time.Hour)},
		{"in an hour", now.Add(time.Hour)},
		{"in a day", now.Add(24 * time.Hour)},
		{"in 1 week", now.Add(7 * 24 * time.Hour)},
		{"in 5m", now.Add(5 * time.Minute)},
		{"at 15:00", day(19, 15, 0)},
		{"at 14:00", day(20, 14, 0)},
		{"at 2:30 pm", day(20, 14, 30)},
		{"at 9am", day(20, 9, 0)},
		{"at 11 pm", day(19, 23, 0)},
		{"at 12am", day(20, 0, 0)},
		{"tomorrow", day(20, 9, 0)},
		{"tomorrow at 8:15", day(20, 8, 15)},
		{"", now.Add(time.Hour)},
		{"whenever you like", now.Add(time.Hour)},
		{"at 25:00", now.Add(time.Hour)},
		{"at 13pm", now.Add(time.Hour)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseReminderTime(tt.expr, now), tt.expr)
	}
}

func TestParseReminderTime_InMinutesWithinTolerance(t *testing.T) {
	now := time.Now()
	got := ParseReminderTime("in 10 minutes", now)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), got, time.Second)
}
