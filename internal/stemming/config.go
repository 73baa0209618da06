package stemming

import (
	"strconv"
	"strings"

	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
)

const (
	// DefaultAnnotationType is the token type produced by the tokenizer.
	DefaultAnnotationType = "Token"
	// DefaultSourceFeature holds the surface word form of a token.
	DefaultSourceFeature = "string"
	// StemFeature is the feature the pass writes.
	StemFeature = "stem"
)

// Config selects what a pass stems and with which language.
type Config struct {
	// Language selects the stemming algorithm.
	Language string
	// AnnotationSetName names the input set; empty means the default set.
	AnnotationSetName string
	// AnnotationType is the annotation type to stem.
	AnnotationType string
	// SourceFeature is the feature holding the word to stem.
	SourceFeature string
	// CacheSize is passed to the resolver; zero disables the memo.
	CacheSize int
	// KeepStopWords leaves stop words such as "having" unstemmed.
	KeepStopWords bool
}

// DefaultConfig returns the conventional token configuration.
func DefaultConfig() Config {
	return Config{
		Language:       stemmer.DefaultLanguage,
		AnnotationType: DefaultAnnotationType,
		SourceFeature:  DefaultSourceFeature,
		CacheSize:      stemmer.DefaultCacheSize,
	}
}

// withDefaults fills blank type and feature names. A whitespace-only set name
// collapses to the default set.
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.AnnotationSetName) == "" {
		c.AnnotationSetName = ""
	}
	if c.AnnotationType == "" {
		c.AnnotationType = DefaultAnnotationType
	}
	if c.SourceFeature == "" {
		c.SourceFeature = DefaultSourceFeature
	}
	return c
}

// Validate checks the fields the resolver cannot check itself.
func (c Config) Validate() error {
	if c.Language == "" {
		return stemerrors.ConfigError("language is required", nil)
	}
	if strings.TrimSpace(c.AnnotationType) == "" {
		return stemerrors.ConfigError("annotation type must not be blank", nil)
	}
	if strings.TrimSpace(c.SourceFeature) == "" {
		return stemerrors.ConfigError("source feature must not be blank", nil)
	}
	if c.CacheSize < 0 {
		return stemerrors.ConfigError("cache size must not be negative", nil).
			WithDetail("cache_size", strconv.Itoa(c.CacheSize))
	}
	return nil
}
