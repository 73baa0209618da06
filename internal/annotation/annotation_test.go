package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/snowstem/internal/annotation"
)

func TestDocument_SetLookup(t *testing.T) {
	doc := annotation.NewDocument("doc.txt", "hello world")

	def, ok := doc.Set("")
	require.True(t, ok)
	assert.Same(t, doc.Annotations(), def)

	_, ok = doc.Set("Original markups")
	assert.False(t, ok, "named set must not be created by lookup")

	created := doc.NamedAnnotations("Original markups")
	got, ok := doc.Set("Original markups")
	require.True(t, ok)
	assert.Same(t, created, got)
	assert.Equal(t, []string{"Original markups"}, doc.SetNames())
}

func TestAnnotationSet_GetPreservesInsertionOrder(t *testing.T) {
	set := annotation.NewAnnotationSet("")
	set.Add("Token", 0, 3, annotation.FeatureMap{"string": "one"})
	set.Add("SpaceToken", 3, 4, nil)
	set.Add("Token", 4, 7, annotation.FeatureMap{"string": "two"})
	set.Add("Token", 8, 13, annotation.FeatureMap{"string": "three"})

	tokens := set.Get("Token")
	require.Len(t, tokens, 3)

	var words []string
	for _, tok := range tokens {
		s, _ := tok.Features.GetString("string")
		words = append(words, s)
	}
	assert.Equal(t, []string{"one", "two", "three"}, words)
	assert.Equal(t, []int{0, 2, 3}, []int{tokens[0].ID, tokens[1].ID, tokens[2].ID})
	assert.Equal(t, 4, set.Size())
	assert.Equal(t, []string{"SpaceToken", "Token"}, set.Types())
	assert.Empty(t, set.Get("Sentence"))
}

func TestAnnotationSet_AddNilFeatures(t *testing.T) {
	set := annotation.NewAnnotationSet("")
	a := set.Add("Token", 0, 1, nil)

	require.NotNil(t, a.Features)
	a.Features["stem"] = "x"
	assert.Equal(t, "x", a.Features["stem"])
}

func TestAnnotationSet_RestoreContinuesIDs(t *testing.T) {
	set := annotation.NewAnnotationSet("")
	set.Restore(&annotation.Annotation{ID: 10, Type: "Token"})

	next := set.Add("Token", 0, 1, nil)
	assert.Equal(t, 11, next.ID)

	got, ok := set.ByID(10)
	require.True(t, ok)
	assert.Equal(t, "Token", got.Type)
}

func TestFeatureMap_GetString(t *testing.T) {
	fm := annotation.FeatureMap{
		"string": "Cats",
		"length": 4,
		"empty":  nil,
	}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"string", "Cats", true},
		{"length", "4", true},
		{"empty", "", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := fm.GetString(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_Text(t *testing.T) {
	doc := annotation.NewDocument("d", "Running cats")
	set := doc.Annotations()

	assert.Equal(t, "cats", doc.Text(set.Add("Token", 8, 12, nil)))
	assert.Equal(t, "", doc.Text(set.Add("Token", 8, 99, nil)))
}
