// Package batch stems many documents concurrently. Work is split by document:
// each document gets its own Analyser, and therefore its own stemmer, so no
// stemmer state is ever shared between goroutines.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemming"
)

// Outcome is the result of stemming one document. Err is the per-document
// failure, if any; Result may be partial when Err is set.
type Outcome struct {
	Name     string
	Document *annotation.Document
	Result   *stemming.Result
	Err      error
}

type Runner struct {
	// Workers bounds concurrency; zero means one per CPU.
	Workers int
	// Prepare runs on each document before stemming, e.g. to tokenize it.
	Prepare func(doc *annotation.Document)
	// OnDone is called once per finished document. Calls are serialised.
	OnDone func(Outcome)
	Logger *slog.Logger
}

// Run stems docs with cfg and returns one outcome per document, in input
// order. Per-document failures are reported in the outcomes only. Run itself
// fails when cfg cannot produce an analyser or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cfg stemming.Config, docs []*annotation.Document) ([]Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Fail fast on configuration or language errors before any goroutine
	// starts.
	if _, err := stemming.NewAnalyser(cfg, stemming.WithLogger(logger)); err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	outcomes := make([]Outcome, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		i, doc := i, doc
		outcomes[i] = Outcome{Document: doc}
		if doc != nil {
			outcomes[i].Name = doc.Name()
		}

		if gctx.Err() != nil {
			outcomes[i].Err = stemerrors.Cancelled(stemming.DefaultName, gctx.Err())
			continue
		}

		g.Go(func() error {
			out := r.stemOne(gctx, cfg, doc, logger)

			mu.Lock()
			outcomes[i] = out
			if r.OnDone != nil {
				r.OnDone(out)
			}
			mu.Unlock()

			return nil
		})
	}

	// Goroutines never fail the group; only the parent context ends it early.
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("batch_complete",
		slog.Int("documents", len(docs)),
		slog.Int("failed", failed),
		slog.Int("workers", workers),
		slog.Duration("duration", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return outcomes, stemerrors.Cancelled(stemming.DefaultName, err)
	}
	return outcomes, nil
}

func (r *Runner) stemOne(ctx context.Context, cfg stemming.Config, doc *annotation.Document, logger *slog.Logger) Outcome {
	out := Outcome{Document: doc}
	if doc == nil {
		out.Err = stemerrors.InternalError("no document to process", nil)
		return out
	}
	out.Name = doc.Name()

	if err := ctx.Err(); err != nil {
		out.Err = stemerrors.Cancelled(stemming.DefaultName, err)
		return out
	}

	if r.Prepare != nil {
		r.Prepare(doc)
	}

	a, err := stemming.NewAnalyser(cfg, stemming.WithLogger(logger))
	if err != nil {
		out.Err = err
		return out
	}

	out.Result, out.Err = a.Execute(ctx, doc)
	if out.Err != nil {
		logger.Warn("document_failed",
			slog.String("document", out.Name),
			slog.String("error", out.Err.Error()))
	}
	return out
}
