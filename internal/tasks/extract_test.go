package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractReminder(t *testing.T) {
	tests := []struct {
		in, text, when string
	}{
		{"remind me in 10 minutes to call mom", "call mom", "in 10 minutes"},
		{"Remind me to call mom at 5pm", "call mom", "at 5pm"},
		{"remind me tomorrow to submit the report", "submit the report", "tomorrow"},
		{"set a reminder to water the plants in 2 hours", "water the plants", "in 2 hours"},
		{"remind me in 5 m to stretch", "stretch", "in 5 m"},
		{"remind me in 2 h to check the oven", "check the oven", "in 2 h"},
		{"alert me to stretch", "stretch", ""},
		{"set a reminder", DefaultReminderText, ""},
	}
	for _, tt := range tests {
		text, when := extractReminder(tt.in)
		assert.Equal(t, tt.text, text, tt.in)
		assert.Equal(t, tt.when, when, tt.in)
	}
}

func TestExtractReminder_ShortUnitsAgreeWithParser(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tests := map[string]time.Duration{
		"remind me in 5 m to stretch":       5 * time.Minute,
		"remind me in 2 h to call mom":      2 * time.Hour,
		"remind me in 1 d to pay rent":      24 * time.Hour,
		"remind me in 1 w to renew the car": 7 * 24 * time.Hour,
	}
	for in, want := range tests {
		_, when := extractReminder(in)
		assert.Equal(t, now.Add(want), ParseReminderTime(when, now), in)
	}
}

func TestExtractExpression(t *testing.T) {
	tests := map[string]string{
		"what's 2+2":            "2+2",
		"calculate 12 x 3":      "12*3",
		"what is (2 + 3) * 4?":  "(2+3)*4",
		"what is 10 / 4":        "10/4",
		"what's -5 + 3":         "-5+3",
		"calculate the meaning": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractExpression(in), in)
	}
}

func TestExtractExpense(t *testing.T) {
	args := ExtractArgs(KindExpense, "add expense $12.50 for lunch")
	assert.Equal(t, "12.50", args[ArgAmount])
	assert.Equal(t, "lunch", args[ArgDesc])
	assert.Equal(t, "food", args[ArgCategory])

	args = ExtractArgs(KindExpense, "spent $30 on uber to the airport")
	assert.Equal(t, "30.00", args[ArgAmount])
	assert.Equal(t, "uber to the airport", args[ArgDesc])
	assert.Equal(t, "transport", args[ArgCategory])

	args = ExtractArgs(KindExpense, "add expense")
	assert.Equal(t, "0.00", args[ArgAmount])
	assert.Equal(t, DefaultExpenseDesc, args[ArgDesc])
	assert.Equal(t, DefaultExpenseCategory, args[ArgCategory])
}

func TestExtractOtherKinds(t *testing.T) {
	assert.Equal(t, "New York", ExtractArgs(KindWeather, "what's the weather in New York today?")[ArgLocation])
	assert.Equal(t, DefaultLocation, ExtractArgs(KindWeather, "how's the weather")[ArgLocation])

	tr := ExtractArgs(KindTranslate, "translate good morning to French")
	assert.Equal(t, "good morning", tr[ArgText])
	assert.Equal(t, "french", tr[ArgTarget])

	tr = ExtractArgs(KindTranslate, "how to say thank you in Japanese")
	assert.Equal(t, "thank you", tr[ArgText])
	assert.Equal(t, "japanese", tr[ArgTarget])

	wa := ExtractArgs(KindWhatsApp, `send a whatsapp to +1 415 555 0123 saying "running late" in 5 minutes`)
	assert.Equal(t, "+14155550123", wa[ArgPhone])
	assert.Equal(t, "running late", wa[ArgMessage])
	assert.Equal(t, "5", wa[ArgDelay])

	wa = ExtractArgs(KindWhatsApp, "whatsapp 4155550123 saying hi")
	assert.Equal(t, "4155550123", wa[ArgPhone])
	assert.Equal(t, "hi", wa[ArgMessage])
	assert.Equal(t, "1", wa[ArgDelay])

	assert.Equal(t, "Shape of You", ExtractArgs(KindMusic, "play Shape of You")[ArgQuery])
	assert.Equal(t, "Blinding Lights", ExtractArgs(KindMusic, "play the song Blinding Lights")[ArgQuery])
	assert.Equal(t, "music", ExtractArgs(KindMusic, "play some music")[ArgQuery])

	ev := ExtractArgs(KindEvent, "schedule team sync tomorrow at 3pm")
	assert.Equal(t, "team sync", ev[ArgName])
	assert.Equal(t, "tomorrow at 3pm", ev[ArgTime])

	assert.Equal(t, "buy milk", ExtractArgs(KindNotes, "remember to buy milk")[ArgText])
	assert.Equal(t, "golang generics", ExtractArgs(KindSearch, "search for golang generics")[ArgQuery])
	assert.Equal(t, "technology", ExtractArgs(KindNews, "news about technology")[ArgTopic])
	assert.Equal(t, "", ExtractArgs(KindNews, "any headlines today?")[ArgTopic])
}
