package stemming_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
	"github.com/deidaraiorek/snowstem/internal/stemming"
)

// recorder captures listener notifications.
type recorder struct {
	progress []int
	status   []string
}

func (r *recorder) OnProgress(p int)  { r.progress = append(r.progress, p) }
func (r *recorder) OnStatus(s string) { r.status = append(r.status, s) }

// countingStemmer wraps a stemmer and runs a hook after every call.
type countingStemmer struct {
	inner stemmer.Stemmer
	calls int
	after func(calls int)
}

func (c *countingStemmer) Stem(word string) string {
	out := c.inner.Stem(word)
	c.calls++
	if c.after != nil {
		c.after(c.calls)
	}
	return out
}

func newDoc(words ...string) *annotation.Document {
	doc := annotation.NewDocument("test.txt", "")
	set := doc.Annotations()
	for i, w := range words {
		set.Add("Token", i, i+1, annotation.FeatureMap{"string": w})
	}
	return doc
}

func numberedDoc(n int) *annotation.Document {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("walking%d", i)
	}
	return newDoc(words...)
}

func stems(t *testing.T, doc *annotation.Document) []any {
	t.Helper()
	var out []any
	for _, tok := range doc.Annotations().Get("Token") {
		out = append(out, tok.Features["stem"])
	}
	return out
}

func TestPass_StemsEnglishTokens(t *testing.T) {
	doc := newDoc("Running", "Jumps", "Cats")
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	res, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []any{"run", "jump", "cat"}, stems(t, doc))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, "test.txt", res.Document)
}

func TestPass_EveryTokenGetsNonEmptyStem(t *testing.T) {
	doc := numberedDoc(250)
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)
	require.NoError(t, err)

	tokens := doc.Annotations().Get("Token")
	require.Len(t, tokens, 250)
	for _, tok := range tokens {
		s, ok := tok.Features["stem"].(string)
		require.True(t, ok, "token %d has no string stem", tok.ID)
		assert.NotEmpty(t, s)
	}
	assert.Equal(t, 250, doc.Annotations().Size())
}

func TestPass_IdempotentOnSecondRun(t *testing.T) {
	doc := newDoc("Generously", "Dogs", "Organization")
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)
	require.NoError(t, err)
	first := stems(t, doc)

	_, err = pass.Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, first, stems(t, doc))
}

func TestPass_OverwritesPriorStem(t *testing.T) {
	doc := annotation.NewDocument("d", "")
	tok := doc.Annotations().Add("Token", 0, 4, annotation.FeatureMap{"string": "cats", "stem": "stale"})
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "cat", tok.Features["stem"])
	assert.Len(t, tok.Features, 2)
}

func TestPass_OnlyConfiguredTypeIsTouched(t *testing.T) {
	doc := newDoc("Cats")
	space := doc.Annotations().Add("SpaceToken", 4, 5, annotation.FeatureMap{"string": " "})
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.NotContains(t, space.Features, "stem")
}

func TestPass_NoInputAnnotations(t *testing.T) {
	doc := annotation.NewDocument("empty.txt", "")
	other := doc.Annotations().Add("Sentence", 0, 10, annotation.FeatureMap{"string": "Cats"})
	rec := &recorder{}
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig(), stemming.WithListener(rec))

	res, err := pass.Run(context.Background(), doc)

	require.Error(t, err)
	assert.True(t, errors.Is(err, stemerrors.ErrNoInputAnnotations))
	assert.Equal(t, 0, res.Processed)
	assert.NotContains(t, other.Features, "stem")
	assert.NotContains(t, rec.progress, 100)

	se, ok := stemerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Token", se.Details["annotation_type"])
	assert.Equal(t, "empty.txt", se.Details["document"])
}

func TestPass_MissingNamedSetIsNothingToDo(t *testing.T) {
	doc := newDoc("Cats")
	cfg := stemming.DefaultConfig()
	cfg.AnnotationSetName = "Original markups"
	rec := &recorder{}
	pass := stemming.NewPass(stemmer.NewStemmer(), cfg, stemming.WithListener(rec))

	res, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, []any{nil}, stems(t, doc))
	assert.Equal(t, []int{100}, rec.progress)
}

func TestPass_NamedSet(t *testing.T) {
	doc := annotation.NewDocument("d", "")
	named := doc.NamedAnnotations("Original markups")
	tok := named.Add("Word", 0, 7, annotation.FeatureMap{"text": "Running"})
	untouched := doc.Annotations().Add("Word", 0, 7, annotation.FeatureMap{"text": "Running"})

	cfg := stemming.Config{
		Language:          "english",
		AnnotationSetName: "Original markups",
		AnnotationType:    "Word",
		SourceFeature:     "text",
	}
	pass := stemming.NewPass(stemmer.NewStemmer(), cfg)

	_, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "run", tok.Features["stem"])
	assert.NotContains(t, untouched.Features, "stem")
}

func TestPass_BlankSetNameUsesDefaultSet(t *testing.T) {
	doc := newDoc("Cats")
	cfg := stemming.DefaultConfig()
	cfg.AnnotationSetName = "   "
	pass := stemming.NewPass(stemmer.NewStemmer(), cfg)

	_, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []any{"cat"}, stems(t, doc))
}

func TestPass_MissingSourceAttribute(t *testing.T) {
	doc := annotation.NewDocument("d", "")
	set := doc.Annotations()
	set.Add("Token", 0, 1, annotation.FeatureMap{"string": "Cats"})
	set.Add("Token", 1, 2, annotation.FeatureMap{"string": "Dogs"})
	bad := set.Add("Token", 2, 3, annotation.FeatureMap{"kind": "word"})
	set.Add("Token", 3, 4, annotation.FeatureMap{"string": "Birds"})
	set.Add("Token", 4, 5, annotation.FeatureMap{"string": "Fish"})
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	res, err := pass.Run(context.Background(), doc)

	require.Error(t, err)
	assert.True(t, errors.Is(err, stemerrors.ErrMissingSourceAttribute))
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, []any{"cat", "dog", nil, nil, nil}, stems(t, doc))

	se, ok := stemerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprint(bad.ID), se.Details["annotation_id"])
	assert.Equal(t, "string", se.Details["source_feature"])
}

func TestPass_NilSourceValueIsMissing(t *testing.T) {
	doc := annotation.NewDocument("d", "")
	doc.Annotations().Add("Token", 0, 1, annotation.FeatureMap{"string": nil})
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)

	assert.True(t, errors.Is(err, stemerrors.ErrMissingSourceAttribute))
}

func TestPass_NonStringSourceIsRendered(t *testing.T) {
	doc := annotation.NewDocument("d", "")
	tok := doc.Annotations().Add("Token", 0, 4, annotation.FeatureMap{"string": 1984})
	pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig())

	_, err := pass.Run(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "1984", tok.Features["stem"])
}

func TestPass_CancelAfterK(t *testing.T) {
	const total = 20

	for _, k := range []int{0, 1, 7, total - 1} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			doc := numberedDoc(total)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if k == 0 {
				cancel()
			}

			cs := &countingStemmer{
				inner: stemmer.NewStemmer(),
				after: func(calls int) {
					if calls == k {
						cancel()
					}
				},
			}
			rec := &recorder{}
			pass := stemming.NewPass(cs, stemming.DefaultConfig(), stemming.WithListener(rec))

			res, err := pass.Run(ctx, doc)

			require.Error(t, err)
			assert.True(t, errors.Is(err, stemerrors.ErrCancelled))
			assert.True(t, errors.Is(err, context.Canceled))
			assert.Equal(t, k, res.Processed)
			assert.NotContains(t, rec.progress, 100)

			for i, tok := range doc.Annotations().Get("Token") {
				if i < k {
					assert.Contains(t, tok.Features, "stem", "token %d should be stemmed", i)
				} else {
					assert.NotContains(t, tok.Features, "stem", "token %d should be untouched", i)
				}
			}
		})
	}
}

func TestPass_InterruptFlag(t *testing.T) {
	doc := numberedDoc(10)
	var pass *stemming.Pass
	cs := &countingStemmer{
		inner: stemmer.NewStemmer(),
		after: func(calls int) {
			if calls == 3 {
				pass.Interrupt()
			}
		},
	}
	pass = stemming.NewPass(cs, stemming.DefaultConfig(), stemming.WithName("Snowball Stemmer"))

	res, err := pass.Run(context.Background(), doc)

	require.Error(t, err)
	assert.True(t, errors.Is(err, stemerrors.ErrCancelled))
	assert.Contains(t, err.Error(), `"Snowball Stemmer"`)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 3, cs.calls)
}

func TestPass_ProgressThrottling(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []int
	}{
		{"below threshold", 100, []int{100}},
		{"exactly threshold plus one", 101, []int{100, 100}},
		{"250 tokens", 250, []int{40, 80, 100}},
		{"1000 tokens", 1000, []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			pass := stemming.NewPass(stemmer.NewStemmer(), stemming.DefaultConfig(), stemming.WithListener(rec))

			_, err := pass.Run(context.Background(), numberedDoc(tt.n))

			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.progress)
			assert.IsNonDecreasing(t, rec.progress)
		})
	}
}

func TestPass_FirstProgressNoLaterThan101stToken(t *testing.T) {
	var firstAt int
	cs := &countingStemmer{inner: stemmer.NewStemmer()}
	rec := stemming.ListenerFuncs{
		Progress: func(int) {
			if firstAt == 0 {
				firstAt = cs.calls
			}
		},
	}
	pass := stemming.NewPass(cs, stemming.DefaultConfig(), stemming.WithListener(rec))

	_, err := pass.Run(context.Background(), numberedDoc(5000))

	require.NoError(t, err)
	assert.Equal(t, 101, firstAt)
}

func BenchmarkPass(b *testing.B) {
	s := stemmer.NewStemmer()
	cfg := stemming.DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		doc := numberedDoc(1000)
		pass := stemming.NewPass(s, cfg)
		b.StartTimer()

		if _, err := pass.Run(context.Background(), doc); err != nil {
			b.Fatal(err)
		}
	}
}
