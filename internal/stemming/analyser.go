package stemming

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
)

// Analyser pairs a resolved stemmer with its configuration. It is created
// once (which resolves the language) and then executed per document.
//
// Execute calls on one Analyser must be sequential. To stem documents in
// parallel, create one Analyser per goroutine.
type Analyser struct {
	cfg      Config
	stemmer  *stemmer.LanguageStemmer
	pass     *Pass
	settings settings
}

// NewAnalyser validates the configuration and resolves its language.
// Resolution failures (UnsupportedLanguage, InstantiationFailure) are
// returned unchanged; no Analyser is usable without a stemmer.
func NewAnalyser(cfg Config, opts ...Option) (*Analyser, error) {
	st := newSettings(opts)
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st.listener.OnStatus("Creating a stemmer")
	st.listener.OnProgress(0)
	defer st.listener.OnProgress(100)

	s, err := stemmer.Resolve(cfg.Language,
		stemmer.WithCacheSize(cfg.CacheSize),
		stemmer.WithStopWords(!cfg.KeepStopWords))
	if err != nil {
		st.logger.Error("stemmer resolution failed",
			slog.String("language", cfg.Language),
			slog.String("error", err.Error()))
		return nil, err
	}

	st.logger.Debug("stemmer resolved", slog.String("language", cfg.Language))

	return &Analyser{
		cfg:      cfg,
		stemmer:  s,
		pass:     newPassWithSettings(s, cfg, st),
		settings: st,
	}, nil
}

func newPassWithSettings(s stemmer.Stemmer, cfg Config, st settings) *Pass {
	return &Pass{
		stemmer:  s,
		cfg:      cfg,
		settings: st,
	}
}

// Execute stems one document. The interrupt flag is cleared first, so an
// Interrupt issued before Execute starts has no effect.
func (a *Analyser) Execute(ctx context.Context, doc *annotation.Document) (*Result, error) {
	if doc == nil {
		return nil, stemerrors.InternalError("no document to process", nil)
	}

	a.pass.resetInterrupt()
	a.settings.listener.OnProgress(0)
	a.settings.listener.OnStatus(fmt.Sprintf("Stemming %s...", doc.Name()))

	res, err := a.pass.Run(ctx, doc)
	if err != nil {
		return res, err
	}

	a.settings.listener.OnStatus(fmt.Sprintf("Stemming %s done", doc.Name()))
	return res, nil
}

// Interrupt stops the current Execute before its next token.
func (a *Analyser) Interrupt() {
	a.pass.Interrupt()
}

func (a *Analyser) Language() string {
	return a.stemmer.Language()
}

func (a *Analyser) Config() Config {
	return a.cfg
}
