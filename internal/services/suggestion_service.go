package services

import (
	"strings"

	"github.com/yoockh/yooassist/internal/models"
)

const MaxSuggestions = 2

type indicator struct {
	words      []string
	suggestion string
}

// proactive indicators look at what the user said and what we know about them.
var proactiveIndicators = []indicator{
	{[]string{"meeting", "appointment", "deadline", "tomorrow"}, "Want me to set a reminder for that?"},
	{[]string{"spent", "bought", "paid", "cost"}, "I can track that expense for you."},
	{[]string{"tired", "stressed", "exhausted"}, "Maybe schedule a short break? I can remind you."},
	{[]string{"trip", "travel", "flight", "vacation"}, "I can check the weather at your destination."},
	{[]string{"song", "music", "listen"}, "Say \"play <song>\" and I'll find it on YouTube."},
	{[]string{"birthday", "anniversary", "party"}, "Want me to add that as an event?"},
	{[]string{"learn", "study", "exam"}, "I can search for resources on that topic."},
}

// follow-up indicators look at the assistant's reply.
var followUpIndicators = []indicator{
	{[]string{"recipe", "ingredients", "cook"}, "Should I save this recipe as a note?"},
	{[]string{"weather", "rain", "temperature", "forecast"}, "Want a reminder to bring an umbrella?"},
	{[]string{"news", "headline", "headlines"}, "Want more headlines on this topic?"},
	{[]string{"step", "steps", "first", "then"}, "Should I write these steps down for you?"},
	{[]string{"translate", "translation", "means"}, "Want me to translate anything else?"},
}

// Suggest returns at most two deduplicated suggestions, proactive ones first.
func Suggest(message, reply string, facts []models.Fact) []string {
	var pool []string
	pool = append(pool, match(proactiveIndicators, message)...)
	for _, f := range facts {
		pool = append(pool, match(proactiveIndicators, f.DerivedText)...)
	}
	pool = append(pool, match(followUpIndicators, reply)...)

	seen := map[string]bool{}
	out := []string{}
	for _, s := range pool {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func match(table []indicator, text string) []string {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		words[w] = true
	}
	var out []string
	for _, ind := range table {
		for _, w := range ind.words {
			if words[w] {
				out = append(out, ind.suggestion)
				break
			}
		}
	}
	return out
}

// WithSuggestions appends suggestions to a reply as "💡 " lines.
func WithSuggestions(reply string, suggestions []string) string {
	if len(suggestions) == 0 {
		return reply
	}
	var sb strings.Builder
	sb.WriteString(reply)
	sb.WriteString("\n")
	for _, s := range suggestions {
		sb.WriteString("\n💡 ")
		sb.WriteString(s)
	}
	return sb.String()
}
