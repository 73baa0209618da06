// Package stemmer resolves a language code to a Snowball stemming algorithm.
//
// Languages are bound at compile time in a closed registry; asking for a code
// that is not registered is a plain lookup miss reported as an
// UnsupportedLanguage error.
package stemmer

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/norwegian"
	"github.com/kljensen/snowball/russian"
	"github.com/kljensen/snowball/spanish"
	"github.com/kljensen/snowball/swedish"
	porterstemmer "github.com/reiver/go-porterstemmer"

	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "english"

// DefaultCacheSize is the number of recent word/stem pairs each instance keeps.
const DefaultCacheSize = 1024

// Stemmer maps a lower-cased word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// StemFunc is the shape shared by the kljensen/snowball language packages.
type StemFunc func(word string, stemStopWords bool) string

var registry = map[string]StemFunc{
	"english":   english.Stem,
	"french":    french.Stem,
	"norwegian": norwegian.Stem,
	"russian":   russian.Stem,
	"spanish":   spanish.Stem,
	"swedish":   swedish.Stem,
	"porter":    porterStem,
}

func porterStem(word string, _ bool) string {
	return porterstemmer.StemString(word)
}

// Languages returns the supported language codes, sorted.
func Languages() []string {
	langs := make([]string, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// IsSupported reports whether Resolve would find the language. Matching is
// case-sensitive.
func IsSupported(language string) bool {
	_, ok := registry[language]
	return ok
}

type options struct {
	cacheSize     int
	stemStopWords bool
}

// Option configures a resolved stemmer.
type Option func(*options)

// WithCacheSize sets how many word/stem pairs the instance memoises.
// Zero disables the memo.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithStopWords controls whether stop words are stemmed as well. The default
// is true: every token gets a stem.
func WithStopWords(stem bool) Option {
	return func(o *options) {
		o.stemStopWords = stem
	}
}

// LanguageStemmer is a resolved stemming algorithm for one language.
//
// An instance owns its memo cache. Do not share one instance between
// concurrent passes; resolve one per pass instead.
type LanguageStemmer struct {
	language      string
	stem          StemFunc
	stemStopWords bool
	cache         *lru.Cache[string, string]
}

// Resolve returns a fresh stemmer for the language.
func Resolve(language string, opts ...Option) (*LanguageStemmer, error) {
	fn, ok := registry[language]
	if !ok {
		return nil, stemerrors.UnsupportedLanguage(language)
	}

	o := options{
		cacheSize:     DefaultCacheSize,
		stemStopWords: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &LanguageStemmer{
		language:      language,
		stem:          fn,
		stemStopWords: o.stemStopWords,
	}

	if o.cacheSize != 0 {
		cache, err := lru.New[string, string](o.cacheSize)
		if err != nil {
			return nil, stemerrors.InstantiationFailure(language, err)
		}
		s.cache = cache
	}

	return s, nil
}

// NewStemmer returns an English stemmer with default options.
func NewStemmer() *LanguageStemmer {
	s, err := Resolve(DefaultLanguage)
	if err != nil {
		// english is always registered and the default cache size is valid
		panic(err)
	}
	return s
}

func (s *LanguageStemmer) Language() string {
	return s.language
}

// Stem returns the stem of word. The word is expected to be lower-cased
// already; the algorithm does not normalise case itself.
func (s *LanguageStemmer) Stem(word string) string {
	if s.cache != nil {
		if stemmed, ok := s.cache.Get(word); ok {
			return stemmed
		}
	}

	stemmed := s.stem(word, s.stemStopWords)

	if s.cache != nil {
		s.cache.Add(word, stemmed)
	}
	return stemmed
}

func (s *LanguageStemmer) StemBatch(words []string) []string {
	stemmed := make([]string, len(words))
	for i, word := range words {
		stemmed[i] = s.Stem(word)
	}
	return stemmed
}
