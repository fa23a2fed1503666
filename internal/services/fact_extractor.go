package services

import (
	"regexp"
	"strings"

	"github.com/yoockh/yooassist/internal/models"
)

type factPattern struct {
	re  *regexp.Regexp
	key func(m []string) string
	val int
}

// value stops at sentence punctuation or a joining word.
const valueRe = `([^.!?,]+?)(?:\s+(?:and|but|so)\s|[.!?,]|$)`

var factPatterns = []factPattern{
	{regexp.MustCompile(`(?i)\bmy favou?rite (food|color|colour|movie|hobby) is ` + valueRe), func(m []string) string {
		k := strings.ToLower(m[1])
		if k == "colour" {
			k = "color"
		}
		return "favorite_" + k
	}, 2},
	{regexp.MustCompile(`(?i)\bi live in ` + valueRe), func([]string) string { return "location" }, 1},
	{regexp.MustCompile(`(?i:\bmy name is)\s+([A-Za-z][\w'-]*(?:\s+[A-Z][\w'-]*)?)`), func([]string) string { return "name" }, 1},
	{regexp.MustCompile(`(?i)\bi work as (?:an? )?` + valueRe), func([]string) string { return "occupation" }, 1},
	{regexp.MustCompile(`(?i)\bi work at ` + valueRe), func([]string) string { return "employer" }, 1},
}

// ExtractFacts finds self-descriptive statements in text. Source is "user" or "assistant".
func ExtractFacts(userID, text, source string) []models.Fact {
	var out []models.Fact
	seen := map[string]bool{}
	for _, p := range factPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			val := strings.TrimSpace(m[p.val])
			key := p.key(m)
			if val == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, models.Fact{
				UserID:      userID,
				Type:        models.FactTypeFact,
				Key:         key,
				Value:       val,
				Source:      source,
				Confidence:  confidenceFor(source),
				DerivedText: key + ": " + val,
			})
		}
	}
	return out
}

func confidenceFor(source string) float64 {
	if source == "user" {
		return 0.9
	}
	return 0.6
}
