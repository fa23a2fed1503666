package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashingEmbedder is a deterministic bag-of-words embedder (feature hashing with
// sign bits). It needs no network and is used when no embedding endpoint is configured.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 768
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Dims() int { return h.dims }

func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.dims)
	for _, tok := range Tokenize(text) {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		if sum&(1<<63) != 0 {
			v[idx] -= 1
		} else {
			v[idx] += 1
		}
	}
	normalize(v)
	return v, nil
}

// Tokenize lower-cases text, splits on non-alphanumerics and drops stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"i": true, "i'm": true, "me": true, "my": true, "you": true, "your": true,
	"we": true, "our": true, "it": true, "its": true, "is": true, "am": true,
	"are": true, "was": true, "were": true, "be": true, "been": true, "do": true,
	"does": true, "did": true, "to": true, "of": true, "in": true, "on": true,
	"at": true, "for": true, "with": true, "what": true, "where": true, "when": true,
	"who": true, "how": true, "which": true, "that": true, "this": true, "there": true,
	"can": true, "could": true, "would": true, "should": true, "will": true,
	"please": true, "about": true, "from": true, "so": true, "if": true,
}
