package tasks

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultReminderText    = "Something important"
	DefaultExpenseDesc     = "Miscellaneous"
	DefaultExpenseCategory = "general"
	DefaultLocation        = "current location"
	DefaultTargetLanguage  = "spanish"
	DefaultEventName       = "Untitled event"
	DefaultWhatsAppDelay   = 1
)

// ExtractArgs pulls the kind-specific arguments out of text, filling defaults for
// anything missing. Retrieval kinds carry no extra arguments.
func ExtractArgs(kind Kind, text string) map[string]string {
	args := map[string]string{}
	switch kind {
	case KindCalculator:
		args[ArgExpr] = ExtractExpression(text)
	case KindEvent:
		args[ArgName], args[ArgTime] = extractEvent(text)
	case KindExpense:
		amount, desc, cat := extractExpense(text)
		args[ArgAmount] = strconv.FormatFloat(amount, 'f', 2, 64)
		args[ArgDesc] = desc
		args[ArgCategory] = cat
	case KindNews:
		args[ArgTopic] = extractNewsTopic(text)
	case KindNotes:
		args[ArgText] = extractNote(text)
	case KindReminder:
		args[ArgText], args[ArgTime] = extractReminder(text)
	case KindSearch:
		args[ArgQuery] = extractSearch(text)
	case KindTranslate:
		args[ArgText], args[ArgTarget] = extractTranslation(text)
	case KindWeather:
		args[ArgLocation] = extractLocation(text)
	case KindWhatsApp:
		phone, msg, delay := extractWhatsApp(text)
		args[ArgPhone] = phone
		args[ArgMessage] = msg
		args[ArgDelay] = strconv.Itoa(delay)
	case KindMusic:
		args[ArgQuery] = extractSong(text)
	}
	return args
}

var spaceRe = regexp.MustCompile(`\s+`)

func clean(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " \t\n.,!?;:\"'")
}

// calculator

var (
	timesRe = regexp.MustCompile(`(\d)\s*[x×]\s*(\d)`)
	exprRe  = regexp.MustCompile(`[\d(.][\d\s+\-*/%^().]*`)
	opRe    = regexp.MustCompile(`\d\s*[+\-*/%^]\s*[\d(.]`)
)

// ExtractExpression returns the arithmetic part of text with whitespace removed,
// e.g. "what's 12 x 3?" -> "12*3".
func ExtractExpression(text string) string {
	s := strings.ToLower(text)
	s = timesRe.ReplaceAllString(s, "$1*$2")
	s = timesRe.ReplaceAllString(s, "$1*$2") // overlapping matches like 2x3x4

	best := ""
	for _, m := range exprRe.FindAllString(s, -1) {
		m = strings.TrimSpace(m)
		if opRe.MatchString(m) && len(m) > len(best) {
			best = m
		}
	}
	if best == "" {
		return ""
	}
	// a leading minus belongs to the expression when it directly precedes it
	if i := strings.Index(s, best); i > 0 && s[i-1] == '-' {
		best = "-" + best
	}
	return strings.TrimRight(strings.ReplaceAll(best, " ", ""), "+-*/%^.")
}

// reminder

var (
	reminderTimeRe = regexp.MustCompile(`(?i)\b(in\s+(?:\d+|an?)\s*(?:minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w)|tomorrow(?:\s+at\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?)?|at\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)
	reminderTextRe = regexp.MustCompile(`(?i)(?:remind me|set (?:a )?reminder|alert me)\s*(?:to|for|about|that)?\s+(.+)`)
)

// extractReminder splits "remind me in 10 minutes to call mom" into ("call mom", "in 10 minutes").
func extractReminder(text string) (what, when string) {
	rest := text
	if loc := reminderTimeRe.FindStringIndex(text); loc != nil {
		when = clean(strings.ToLower(text[loc[0]:loc[1]]))
		rest = text[:loc[0]] + " " + text[loc[1]:]
	}
	rest = spaceRe.ReplaceAllString(rest, " ")
	if m := reminderTextRe.FindStringSubmatch(rest); m != nil {
		what = clean(m[1])
	}
	if what == "" {
		what = DefaultReminderText
	}
	return what, when
}

// expense

var (
	dollarRe     = regexp.MustCompile(`\$\s*(\d+(?:\.\d{1,2})?)`)
	dollarWordRe = regexp.MustCompile(`(?i)(\d+(?:\.\d{1,2})?)\s*(?:dollars?|bucks?|usd)`)
	anyNumberRe  = regexp.MustCompile(`(\d+(?:\.\d{1,2})?)`)
	onForRe      = regexp.MustCompile(`(?i)\b(?:on|for)\s+(.+)$`)
	expenseNoise = regexp.MustCompile(`(?i)\$?\d+(?:\.\d{1,2})?\s*(?:dollars?|bucks?|usd)?|\b(?:add|track|spent|expense|on|for|cost|price|i)\b`)
)

var expenseCategories = []struct {
	category string
	words    []string
}{
	{"food", []string{"lunch", "dinner", "breakfast", "coffee", "groceries", "grocery", "restaurant", "pizza", "food", "snack"}},
	{"transport", []string{"uber", "taxi", "gas", "fuel", "bus", "train", "parking", "metro", "flight"}},
	{"entertainment", []string{"movie", "cinema", "concert", "netflix", "spotify", "game", "tickets"}},
	{"shopping", []string{"clothes", "shoes", "amazon", "shopping", "gift"}},
	{"bills", []string{"rent", "electricity", "internet", "phone bill", "water bill", "insurance"}},
	{"health", []string{"pharmacy", "doctor", "medicine", "gym"}},
}

func extractExpense(text string) (amount float64, desc, category string) {
	for _, re := range []*regexp.Regexp{dollarRe, dollarWordRe, anyNumberRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			amount, _ = strconv.ParseFloat(m[1], 64)
			break
		}
	}

	if m := onForRe.FindStringSubmatch(text); m != nil {
		desc = clean(dollarRe.ReplaceAllString(m[1], ""))
	}
	if len(desc) <= 2 {
		desc = clean(expenseNoise.ReplaceAllString(text, " "))
	}
	if len(desc) <= 2 {
		desc = DefaultExpenseDesc
	}

	category = DefaultExpenseCategory
	lower := strings.ToLower(desc + " " + text)
	for _, c := range expenseCategories {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return amount, desc, c.category
			}
		}
	}
	return amount, desc, category
}

// event

var (
	eventNameRe = regexp.MustCompile(`(?i)(?:schedule|create event|add event)\s*(?:an?\s+)?(?:event\s+)?(?:called\s+|named\s+|for\s+)?(.*)`)
	eventTimeRe = regexp.MustCompile(`(?i)\b((?:on|at|tomorrow|today|next|this)\b.*)$`)
)

func extractEvent(text string) (name, when string) {
	body := text
	if m := eventNameRe.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	if loc := eventTimeRe.FindStringSubmatchIndex(body); loc != nil {
		when = clean(body[loc[2]:loc[3]])
		body = body[:loc[0]]
	}
	name = clean(body)
	if name == "" {
		name = DefaultEventName
	}
	if when == "" {
		when = "unspecified time"
	}
	return name, when
}

// news, search, notes

var (
	newsTopicRe = regexp.MustCompile(`(?i)(?:news|headlines)\s+(?:about|on|for|regarding|in)\s+(.+)`)
	searchRe    = regexp.MustCompile(`(?i)(?:search for|find information (?:about|on)|find information|look up)\s+(.+)`)
	noteRe      = regexp.MustCompile(`(?i)(?:remember to|note that|write down|save this)\s*:?\s*(.+)`)
)

func extractNewsTopic(text string) string {
	if m := newsTopicRe.FindStringSubmatch(text); m != nil {
		return clean(m[1])
	}
	return ""
}

func extractSearch(text string) string {
	if m := searchRe.FindStringSubmatch(text); m != nil {
		return clean(m[1])
	}
	return clean(text)
}

func extractNote(text string) string {
	if m := noteRe.FindStringSubmatch(text); m != nil {
		return clean(m[1])
	}
	return clean(text)
}

// translate

var translateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)translate\s+(.+?)\s+(?:to|into)\s+([a-z]+)\W*$`),
	regexp.MustCompile(`(?i)how (?:do you |do i )?(?:to )?say\s+(.+?)\s+in\s+([a-z]+)\W*$`),
	regexp.MustCompile(`(?i)what is\s+(.+?)\s+in\s+([a-z]+)\W*$`),
}

func extractTranslation(text string) (phrase, target string) {
	for _, re := range translateRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return clean(m[1]), strings.ToLower(m[2])
		}
	}
	return clean(text), DefaultTargetLanguage
}

// weather

var (
	locationRe     = regexp.MustCompile(`(?i)(?:weather|forecast|temperature)\s+(?:like\s+)?(?:in|for|at)\s+([\p{L} .,'-]+)`)
	locationTailRe = regexp.MustCompile(`(?i)\s+(?:today|tomorrow|now|right now|this week|tonight)$`)
)

func extractLocation(text string) string {
	if m := locationRe.FindStringSubmatch(text); m != nil {
		loc := clean(m[1])
		loc = clean(locationTailRe.ReplaceAllString(loc, ""))
		if loc != "" {
			return loc
		}
	}
	return DefaultLocation
}

// whatsapp

var (
	phoneRe      = regexp.MustCompile(`\+?\d[\d\s-]{6,}\d`)
	quotedRe     = regexp.MustCompile(`["“]([^"”]+)["”]`)
	waMessageRe  = regexp.MustCompile(`(?i)(?:saying|that says|with message|message:|text:)\s*(.+)$`)
	waDelayRe    = regexp.MustCompile(`(?i)\bin\s+(\d+)\s*(?:minutes?|mins?)\b`)
	waDelayStrip = regexp.MustCompile(`(?i)\s*\bin\s+\d+\s*(?:minutes?|mins?)\b`)
)

func extractWhatsApp(text string) (phone, message string, delay int) {
	if m := phoneRe.FindString(text); m != "" {
		phone = strings.NewReplacer(" ", "", "-", "").Replace(m)
	}

	delay = DefaultWhatsAppDelay
	if m := waDelayRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 {
			delay = n
		}
	}

	if m := quotedRe.FindStringSubmatch(text); m != nil {
		message = clean(m[1])
	} else if m := waMessageRe.FindStringSubmatch(text); m != nil {
		message = clean(waDelayStrip.ReplaceAllString(m[1], ""))
	}
	return phone, message, delay
}

// music

var songRe = regexp.MustCompile(`(?i)^.*?\bplay\s+(?:some\s+|the\s+|me\s+)?(?:song\s+|music\s+)?(.*)$`)

func extractSong(text string) string {
	if m := songRe.FindStringSubmatch(text); m != nil {
		q := clean(m[1])
		q = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(q, "by "), "called "))
		if q != "" && !strings.EqualFold(q, "music") && !strings.EqualFold(q, "song") {
			return q
		}
	}
	return "music"
}
