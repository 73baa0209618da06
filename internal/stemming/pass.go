// Package stemming attaches a "stem" feature to every token annotation of a
// document.
//
// A Pass walks the token annotations of one annotation set in document order,
// lower-cases each token's word form, stems it and writes the result back.
// The pass is synchronous, polls for cancellation once per token and never
// rolls back tokens it has already stemmed.
package stemming

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
)

// ProgressInterval is the number of tokens that must be exceeded since the
// last progress report before another one is emitted.
const ProgressInterval = 100

// DefaultName identifies the pass in status and cancellation messages.
const DefaultName = "Snowball Stemmer"

// Result summarises one pass.
type Result struct {
	Document  string        `json:"document"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Duration  time.Duration `json:"duration"`
}

type settings struct {
	name     string
	listener Listener
	logger   *slog.Logger
}

// Option configures a Pass or an Analyser.
type Option func(*settings)

// WithName sets the name used in cancellation messages.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithListener sets the progress/status sink.
func WithListener(l Listener) Option {
	return func(s *settings) {
		s.listener = l
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		name:     DefaultName,
		listener: NopListener{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.listener == nil {
		s.listener = NopListener{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Pass applies one stemmer to the token annotations of a document.
// A Pass must not run concurrently with itself: the stemmer it holds is not
// safe for concurrent use.
type Pass struct {
	stemmer     stemmer.Stemmer
	cfg         Config
	settings    settings
	interrupted atomic.Bool
}

// NewPass binds a resolved stemmer to a configuration. Blank type and
// feature names fall back to the defaults.
func NewPass(s stemmer.Stemmer, cfg Config, opts ...Option) *Pass {
	return &Pass{
		stemmer:  s,
		cfg:      cfg.withDefaults(),
		settings: newSettings(opts),
	}
}

// Interrupt asks a running pass to stop before its next token. It is safe to
// call from another goroutine.
func (p *Pass) Interrupt() {
	p.interrupted.Store(true)
}

func (p *Pass) resetInterrupt() {
	p.interrupted.Store(false)
}

func (p *Pass) isInterrupted(ctx context.Context) bool {
	return p.interrupted.Load() || ctx.Err() != nil
}

// Run stems every annotation of the configured type in the configured set.
//
// A missing named set is not an error: there is nothing to process and Run
// succeeds with an empty result. An existing set without annotations of the
// configured type fails with NoInputAnnotations. On any failure the returned
// result reports how many tokens were stemmed before the pass stopped; those
// tokens keep their new stems.
func (p *Pass) Run(ctx context.Context, store annotation.Store) (*Result, error) {
	start := time.Now()
	cfg := p.cfg
	log := p.settings.logger
	listener := p.settings.listener

	result := &Result{Document: store.Name()}

	inputAS, ok := store.Set(cfg.AnnotationSetName)
	if !ok {
		log.Info("annotation set not found, nothing to stem",
			slog.String("document", store.Name()),
			slog.String("annotation_set", cfg.AnnotationSetName))
		listener.OnProgress(100)
		result.Duration = time.Since(start)
		return result, nil
	}

	tokens := inputAS.Get(cfg.AnnotationType)
	if len(tokens) == 0 {
		return result, stemerrors.NoInputAnnotations(cfg.AnnotationSetName, cfg.AnnotationType).
			WithDetail("document", store.Name())
	}

	allTokens := len(tokens)
	result.Total = allTokens
	processedTokens := 0
	lastReport := 0

	for _, token := range tokens {
		if p.isInterrupted(ctx) {
			result.Processed = processedTokens
			result.Duration = time.Since(start)
			log.Warn("stemming interrupted",
				slog.String("document", store.Name()),
				slog.Int("processed", processedTokens),
				slog.Int("total", allTokens))
			return result, stemerrors.Cancelled(p.settings.name, ctx.Err()).
				WithDetail("document", store.Name())
		}

		word, ok := token.Features.GetString(cfg.SourceFeature)
		if !ok {
			result.Processed = processedTokens
			result.Duration = time.Since(start)
			return result, stemerrors.MissingSourceAttribute(
				cfg.AnnotationSetName, cfg.AnnotationType, cfg.SourceFeature, token.ID,
			).WithDetail("document", store.Name())
		}

		token.Features[StemFeature] = p.stemmer.Stem(strings.ToLower(word))

		processedTokens++
		if processedTokens-lastReport > ProgressInterval {
			lastReport = processedTokens
			listener.OnProgress(processedTokens * 100 / allTokens)
		}
	}

	listener.OnProgress(100)

	result.Processed = processedTokens
	result.Duration = time.Since(start)

	log.Info("stemming complete",
		slog.String("document", store.Name()),
		slog.Int("tokens", processedTokens),
		slog.Duration("duration", result.Duration))

	return result, nil
}
