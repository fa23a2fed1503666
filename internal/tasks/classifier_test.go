package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_RetrievalBeatsCreation(t *testing.T) {
	phrases := map[Kind][]string{
		KindRetrieveNotes:    {"show my notes", "list my notes", "what did i ask", "what did you remember"},
		KindRetrieveReminder: {"show my reminders", "list my reminders", "what reminders"},
		KindRetrieveExpense:  {"show my expenses", "list my spending", "expense summary"},
		KindRetrieveEvent:    {"show my events", "list my events", "upcoming events", "scheduled events"},
	}
	for kind, list := range phrases {
		for _, p := range list {
			// each variant also contains a creation trigger
			for _, msg := range []string{p, "Please " + p, p + " and remind me to schedule news"} {
				d, ok := Classify(msg)
				require.True(t, ok, msg)
				assert.Equal(t, kind, d.Kind, msg)
				assert.Equal(t, ActionRetrieve, d.Args[ArgAction], msg)
				assert.Equal(t, msg, d.Args[ArgQuery], msg)
				assert.Equal(t, msg, d.Args[ArgRaw], msg)
			}
		}
	}
}

func TestClassify_CreationOrderContract(t *testing.T) {
	assert.Equal(t, []Kind{
		KindCalculator, KindEvent, KindExpense, KindNews, KindNotes, KindReminder,
		KindSearch, KindTranslate, KindWeather, KindWhatsApp, KindMusic,
	}, CreationOrder())
}

func TestClassify_FirstMatchWins(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"what's 2+2", KindCalculator},
		{"calculate my expense for lunch", KindCalculator},
		{"schedule a reminder for the dentist", KindEvent},
		{"add expense $12 and check the news", KindExpense},
		{"remember to read the news", KindNews},
		{"note that I should remind me to call", KindNotes},
		{"remind me to search for flights", KindReminder},
		{"search for how to translate hello to french", KindSearch},
		{"translate hello to french", KindTranslate},
		{"what is the weather in Paris", KindWeather},
		{"send a whatsapp to +14155550123 saying play music", KindWhatsApp},
		{"play some music", KindMusic},
	}
	for _, tt := range tests {
		d, ok := Classify(tt.msg)
		require.True(t, ok, tt.msg)
		assert.Equal(t, tt.want, d.Kind, tt.msg)
		assert.Equal(t, ActionCreate, d.Args[ArgAction], tt.msg)
		assert.Equal(t, tt.msg, d.Args[ArgRaw], tt.msg)
	}
}

func TestClassify_Exclusions(t *testing.T) {
	// "show events" excludes event creation even though "schedule" matches
	d, ok := Classify("show events on my schedule")
	if ok {
		assert.NotEqual(t, KindEvent, d.Kind)
	}

	d, ok = Classify("list reminders, then remind me to stretch")
	if ok {
		assert.NotEqual(t, KindReminder, d.Kind)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	for _, msg := range []string{"", "   ", "hello there", "how are you doing today?", "tell me a joke"} {
		_, ok := Classify(msg)
		assert.False(t, ok, msg)
	}
}

func TestClassify_ReminderArgs(t *testing.T) {
	d, ok := Classify("remind me in 10 minutes to call mom")
	require.True(t, ok)
	assert.Equal(t, KindReminder, d.Kind)
	assert.Equal(t, "call mom", d.Args[ArgText])
	assert.Equal(t, "in 10 minutes", d.Args[ArgTime])
}

func TestKind(t *testing.T) {
	for _, k := range AllKinds() {
		assert.True(t, k.Valid(), k)
		parsed, ok := ParseKind(" " + string(k) + " ")
		assert.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("email")
	assert.False(t, ok)

	assert.True(t, KindRetrieveNotes.IsRetrieval())
	assert.False(t, KindNotes.IsRetrieval())
	assert.Equal(t, "notes", KindRetrieveNotes.Label())
	assert.Equal(t, "WhatsApp", KindWhatsApp.Label())
}
