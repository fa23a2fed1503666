package tasks

import (
	"regexp"
	"strings"
)

type rule struct {
	kind     Kind
	patterns []*regexp.Regexp
	exclude  []*regexp.Regexp
}

func (r rule) matches(s string) bool {
	hit := false
	for _, p := range r.patterns {
		if p.MatchString(s) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, x := range r.exclude {
		if x.MatchString(s) {
			return false
		}
	}
	return true
}

func res(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Retrieval phrases are checked before any creation rule.
var retrievalRules = []rule{
	{kind: KindRetrieveNotes, patterns: res(`show my notes`, `list my notes`, `what did i ask`, `what did you remember`)},
	{kind: KindRetrieveReminder, patterns: res(`show my reminders`, `list my reminders`, `what reminders`)},
	{kind: KindRetrieveExpense, patterns: res(`show my expenses`, `list my spending`, `expense summary`)},
	{kind: KindRetrieveEvent, patterns: res(`show my events`, `list my events`, `upcoming events`, `scheduled events`)},
}

// Creation rules; order matters, the first match wins.
var creationRules = []rule{
	{kind: KindCalculator, patterns: res(`calculat(e|ion)`, `what(?:'s| is) \d+`, `\d+\s*[\+\-\*/x×]\s*\d+`)},
	{kind: KindEvent, patterns: res(`schedule`, `create event`, `add event`), exclude: res(`show events`, `list events`)},
	{kind: KindExpense, patterns: res(`add expense`, `track \$`, `spent \$`), exclude: res(`show expenses`, `list expenses`)},
	{kind: KindNews, patterns: res(`news`, `headlines`, `current events`)},
	{kind: KindNotes, patterns: res(`remember to`, `note that`, `write down`, `save this`), exclude: res(`show notes`, `list notes`, `what did i ask`)},
	{kind: KindReminder, patterns: res(`remind me (?:to|in|at|tomorrow)`, `set (?:a )?reminder`, `alert me to`), exclude: res(`show reminders`, `list reminders`)},
	{kind: KindSearch, patterns: res(`search for`, `find information`, `look up`)},
	{kind: KindTranslate, patterns: res(`translate .* to`, `how to say .* in`, `what is .+ in \w+$`), exclude: res(`weather`, `temperature`, `forecast`)},
	{kind: KindWeather, patterns: res(`weather in`, `forecast for`, `temperature in`, `weather`)},
	{kind: KindWhatsApp, patterns: res(`whatsapp`, `send (?:a )?message to \+?\d`)},
	{kind: KindMusic, patterns: res(`play (?:some |the )?(?:song|music)`, `^play `)},
}

// CreationOrder lists the creation kinds in the order Classify tries them.
func CreationOrder() []Kind {
	out := make([]Kind, len(creationRules))
	for i, r := range creationRules {
		out[i] = r.kind
	}
	return out
}

// Classify decides whether text is a task request. Matching is case-insensitive; the
// returned args always carry the original text under "raw".
func Classify(text string) (Dispatch, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return Dispatch{}, false
	}

	for _, r := range retrievalRules {
		if r.matches(s) {
			return Dispatch{Kind: r.kind, Args: map[string]string{ArgQuery: text, ArgRaw: text, ArgAction: ActionRetrieve}}, true
		}
	}

	for _, r := range creationRules {
		if r.matches(s) {
			args := ExtractArgs(r.kind, text)
			args[ArgRaw] = text
			args[ArgAction] = ActionCreate
			return Dispatch{Kind: r.kind, Args: args}, true
		}
	}
	return Dispatch{}, false
}
