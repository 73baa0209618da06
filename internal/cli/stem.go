package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	"github.com/deidaraiorek/snowstem/internal/batch"
	"github.com/deidaraiorek/snowstem/internal/document"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemming"
	"github.com/deidaraiorek/snowstem/internal/storage"
	"github.com/deidaraiorek/snowstem/internal/tokenizer"
)

type stemOptions struct {
	save          bool
	stored        string
	asJSON        bool
	verbose       bool
	workers       int
	annotationSet string
	annType       string
	feature       string
}

func newStemCmd(a *app) *cobra.Command {
	opts := &stemOptions{}

	cmd := &cobra.Command{
		Use:   "stem [files or globs...]",
		Short: "Attach Snowball stems to token annotations",
		Long: `Load documents, tokenize them when they carry no token annotations,
and attach a "stem" feature to every token.

Plain files and doublestar globs ("docs/**/*.txt") are accepted. Files ending
in .html or .htm are parsed as HTML.

Examples:
  snowstem stem notes.txt                  # Print stems
  snowstem stem -l french "corpus/*.txt"   # Stem with another language
  snowstem stem "docs/**/*.html" --save    # Stem and store the documents
  snowstem stem --stored notes.txt         # Re-stem a stored document`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.stored != "" {
				if len(args) > 0 {
					return stemerrors.ConfigError("--stored cannot be combined with file arguments", nil)
				}
				return a.stemStored(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
			}
			if len(args) == 0 {
				return stemerrors.ConfigError("no input files", nil).
					WithSuggestion("pass files or glob patterns, or --stored NAME")
			}
			return a.stemFiles(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.save, "save", false, "store the stemmed documents")
	cmd.Flags().StringVar(&opts.stored, "stored", "", "stem a stored document in place")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every token and its stem")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "documents stemmed in parallel (default from config)")
	cmd.Flags().StringVar(&opts.annotationSet, "set", "", "annotation set to stem (default set if empty)")
	cmd.Flags().StringVar(&opts.annType, "type", "", "annotation type to stem")
	cmd.Flags().StringVar(&opts.feature, "feature", "", "feature holding the word to stem")

	return cmd
}

func (a *app) stemmingConfig(opts *stemOptions) stemming.Config {
	cfg := a.cfg.StemmingConfig()
	if opts.annotationSet != "" {
		cfg.AnnotationSetName = opts.annotationSet
	}
	if opts.annType != "" {
		cfg.AnnotationType = opts.annType
	}
	if opts.feature != "" {
		cfg.SourceFeature = opts.feature
	}
	return cfg
}

// ensureTokens tokenizes doc into the configured set unless that set already
// holds annotations of the configured type.
func ensureTokens(tok *tokenizer.Tokenizer, doc *annotation.Document, cfg stemming.Config) {
	annType := cfg.AnnotationType
	if annType == "" {
		annType = stemming.DefaultAnnotationType
	}
	if set, ok := doc.Set(cfg.AnnotationSetName); ok && len(set.Get(annType)) > 0 {
		return
	}
	tok.Annotate(doc, cfg.AnnotationSetName, annType)
}

func (a *app) stemFiles(ctx context.Context, stdout, stderr io.Writer, patterns []string, opts *stemOptions) error {
	files, err := document.Expand(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return stemerrors.New(stemerrors.ErrCodeFileRead, "no files matched", nil).
			WithDetail("patterns", fmt.Sprint(patterns))
	}

	docs := make([]*annotation.Document, 0, len(files))
	for _, f := range files {
		doc, err := document.LoadFile(f)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	cfg := a.stemmingConfig(opts)
	tok := a.cfg.Tokenizer.New()

	workers := opts.workers
	if workers == 0 {
		workers = a.cfg.Batch.Workers
	}

	var bar *progressbar.ProgressBar
	if len(docs) > 1 && isTerminal(stderr) {
		bar = newBar(stderr, len(docs), "[cyan]Stemming[reset]")
	}

	runner := &batch.Runner{
		Workers: workers,
		Logger:  a.logger,
		Prepare: func(doc *annotation.Document) { ensureTokens(tok, doc, cfg) },
		OnDone: func(batch.Outcome) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	outcomes, err := runner.Run(ctx, cfg, docs)
	if err != nil && outcomes == nil {
		return err
	}
	runErr := err

	if opts.save {
		if err := a.saveOutcomes(ctx, outcomes); err != nil {
			return err
		}
	}

	if err := printOutcomes(stdout, outcomes, cfg, opts); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return stemerrors.InternalError(fmt.Sprintf("%d of %d documents failed", failed, len(outcomes)), firstError(outcomes))
	}
	return nil
}

func firstError(outcomes []batch.Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}

// saveOutcomes stores every successfully stemmed document under the store
// lock.
func (a *app) saveOutcomes(ctx context.Context, outcomes []batch.Outcome) error {
	store, unlock, err := a.openLockedStore()
	if err != nil {
		return err
	}
	defer unlock()
	defer store.Close()

	saved := 0
	for _, o := range outcomes {
		if o.Err != nil || o.Document == nil {
			continue
		}
		if err := store.Save(ctx, o.Document); err != nil {
			return err
		}
		saved++
	}
	a.logger.Info("documents_saved",
		slog.Int("count", saved),
		slog.String("path", a.cfg.Storage.Path))
	return nil
}

// stemStored re-stems a stored document in place.
func (a *app) stemStored(ctx context.Context, stdout, stderr io.Writer, opts *stemOptions) error {
	cfg := a.stemmingConfig(opts)

	analyser, err := stemming.NewAnalyser(cfg,
		stemming.WithLogger(a.logger),
		stemming.WithListener(a.passListener(stderr)))
	if err != nil {
		return err
	}

	store, unlock, err := a.openLockedStore()
	if err != nil {
		return err
	}
	defer unlock()
	defer store.Close()

	doc, err := store.Load(ctx, opts.stored)
	if err != nil {
		return err
	}
	ensureTokens(a.cfg.Tokenizer.New(), doc, analyser.Config())

	res, err := analyser.Execute(ctx, doc)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return err
	}

	return printOutcomes(stdout, []batch.Outcome{{Name: doc.Name(), Document: doc, Result: res}}, analyser.Config(), opts)
}

// openLockedStore opens the configured store after taking its file lock. The
// returned unlock must run after the store is closed.
func (a *app) openLockedStore() (storage.Store, func(), error) {
	path := a.cfg.Storage.Path

	unlock, ok, err := storage.TryLock(path)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		a.logger.Info("waiting for store lock", slog.String("path", path))
		if unlock, err = storage.Lock(path); err != nil {
			return nil, nil, err
		}
	}

	store, err := storage.Open(a.cfg.Storage.Backend, path)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return store, unlock, nil
}

type tokenOutput struct {
	Text string `json:"text"`
	Stem string `json:"stem"`
}

type documentOutput struct {
	Document  string        `json:"document"`
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Error     string        `json:"error,omitempty"`
	Tokens    []tokenOutput `json:"tokens,omitempty"`
}

func printOutcomes(w io.Writer, outcomes []batch.Outcome, cfg stemming.Config, opts *stemOptions) error {
	out := make([]documentOutput, 0, len(outcomes))
	for _, o := range outcomes {
		d := documentOutput{Document: o.Name}
		if o.Result != nil {
			d.Processed = o.Result.Processed
			d.Total = o.Result.Total
		}
		if o.Err != nil {
			d.Error = o.Err.Error()
		}
		if (opts.verbose || opts.asJSON) && o.Document != nil {
			d.Tokens = tokensOf(o.Document, cfg)
		}
		out = append(out, d)
	}

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, d := range out {
		if d.Error != "" {
			fmt.Fprintf(w, "%s: FAILED %s\n", d.Document, d.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %d tokens stemmed\n", d.Document, d.Processed)
		for _, t := range d.Tokens {
			fmt.Fprintf(w, "  %-20s %s\n", t.Text, t.Stem)
		}
	}
	return nil
}

func tokensOf(doc *annotation.Document, cfg stemming.Config) []tokenOutput {
	annType := cfg.AnnotationType
	if annType == "" {
		annType = stemming.DefaultAnnotationType
	}
	feature := cfg.SourceFeature
	if feature == "" {
		feature = stemming.DefaultSourceFeature
	}

	set, ok := doc.Set(cfg.AnnotationSetName)
	if !ok {
		return nil
	}
	var out []tokenOutput
	for _, t := range set.Get(annType) {
		text, _ := t.Features.GetString(feature)
		stem, ok := t.Features.GetString(stemming.StemFeature)
		if !ok {
			continue
		}
		out = append(out, tokenOutput{Text: text, Stem: stem})
	}
	return out
}
