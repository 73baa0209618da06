package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/deidaraiorek/snowstem/internal/annotation"
)

const (
	KindWord   = "word"
	KindNumber = "number"
	KindMixed  = "mixed"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

type Span struct {
	Start int
	End   int
	Text  string
}

type Tokenizer struct {
	StopWords map[string]bool
	minLength int
	maxLength int
}

type Option func(*Tokenizer)

// WithLengthBounds drops tokens shorter than min or longer than max runes.
// Zero disables a bound.
func WithLengthBounds(min, max int) Option {
	return func(t *Tokenizer) {
		t.minLength = min
		t.maxLength = max
	}
}

func WithStopWords(words []string) Option {
	return func(t *Tokenizer) {
		t.StopWords = make(map[string]bool, len(words))
		for _, w := range words {
			t.StopWords[strings.ToLower(w)] = true
		}
	}
}

func NewTokenizer(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		StopWords: defaultStopWords(),
		minLength: 1,
		maxLength: 0,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits text into word spans with byte offsets into text. The
// original case is kept; the stemmer lower-cases on its own.
func (t *Tokenizer) Tokenize(text string) []Span {
	locs := wordPattern.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(locs))

	for _, loc := range locs {
		word := text[loc[0]:loc[1]]
		n := len([]rune(word))
		if t.minLength > 0 && n < t.minLength {
			continue
		}
		if t.maxLength > 0 && n > t.maxLength {
			continue
		}
		spans = append(spans, Span{Start: loc[0], End: loc[1], Text: word})
	}
	return spans
}

// Annotate adds one annotation per token to the named set of doc and returns
// how many were added. Each annotation carries the features "string",
// "length", "kind" and "stop".
func (t *Tokenizer) Annotate(doc *annotation.Document, setName, annotationType string) int {
	set := doc.NamedAnnotations(setName)
	spans := t.Tokenize(doc.Content())

	for _, span := range spans {
		set.Add(annotationType, span.Start, span.End, annotation.FeatureMap{
			"string": span.Text,
			"length": len([]rune(span.Text)),
			"kind":   Kind(span.Text),
			"stop":   t.IsStopWord(span.Text),
		})
	}
	return len(spans)
}

func (t *Tokenizer) IsStopWord(word string) bool {
	return t.StopWords[strings.ToLower(word)]
}

// Kind classifies a token as a word, a number or a mix of both.
func Kind(word string) string {
	alphaCount := 0
	digitCount := 0

	for _, r := range word {
		if unicode.IsLetter(r) {
			alphaCount++
		} else if unicode.IsDigit(r) {
			digitCount++
		}
	}
	switch {
	case digitCount == 0:
		return KindWord
	case alphaCount == 0:
		return KindNumber
	default:
		return KindMixed
	}
}

func defaultStopWords() map[string]bool {
	words := []string{
		// Articles
		"a", "an", "the",

		// Pronouns
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself",
		"it", "its", "itself", "they", "them", "their", "theirs", "themselves",

		// Prepositions
		"of", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",

		// Conjunctions
		"and", "or", "but", "if", "while", "because", "as", "until",
		"than", "so", "nor", "yet",

		// Common verbs
		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having",
		"do", "does", "did", "doing",
		"will", "would", "should", "could", "can", "may", "might", "must",

		// Other common words
		"this", "that", "these", "those",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"all", "each", "every", "both", "few", "more", "most", "other", "some", "such",
		"no", "not", "only", "own", "same", "then", "there", "too", "very",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
