package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/storage"
)

var backends = []struct {
	name string
	file string
}{
	{storage.BackendSQLite, "docs.db"},
	{storage.BackendBolt, "docs.bolt"},
}

func openStore(t *testing.T, backend, file string) storage.Store {
	t.Helper()
	store, err := storage.Open(backend, filepath.Join(t.TempDir(), "nested", file))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDoc() *annotation.Document {
	doc := annotation.NewDocument("cats.txt", "Cats ran home")
	tokens := doc.Annotations()
	tokens.Add("Token", 0, 4, annotation.FeatureMap{"string": "Cats", "length": 4, "stem": "cat", "stop": false})
	tokens.Add("Token", 5, 8, annotation.FeatureMap{"string": "ran", "length": 3})
	tokens.Add("SpaceToken", 4, 5, nil)
	doc.NamedAnnotations("markup").Add("title", 0, 13, annotation.FeatureMap{"score": 0.5})
	return doc
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.name, b.file)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, sampleDoc()))

			doc, err := store.Load(ctx, "cats.txt")
			require.NoError(t, err)

			assert.Equal(t, "cats.txt", doc.Name())
			assert.Equal(t, "Cats ran home", doc.Content())

			tokens := doc.Annotations().Get("Token")
			require.Len(t, tokens, 2)
			assert.Equal(t, 0, tokens[0].ID)
			assert.Equal(t, "cat", tokens[0].Features["stem"])
			assert.Equal(t, 4, tokens[0].Features["length"])
			assert.Equal(t, false, tokens[0].Features["stop"])
			assert.Equal(t, "ran", doc.Text(tokens[1]))
			assert.Equal(t, []string{"SpaceToken", "Token"}, doc.Annotations().Types())

			markup, ok := doc.Set("markup")
			require.True(t, ok)
			titles := markup.Get("title")
			require.Len(t, titles, 1)
			assert.Equal(t, 0.5, titles[0].Features["score"])

			// IDs continue after the restored ones
			next := doc.Annotations().Add("Token", 9, 13, nil)
			assert.Equal(t, 3, next.ID)
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.name, b.file)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, sampleDoc()))
			require.NoError(t, store.Save(ctx, annotation.NewDocument("cats.txt", "replaced")))

			doc, err := store.Load(ctx, "cats.txt")
			require.NoError(t, err)
			assert.Equal(t, "replaced", doc.Content())
			assert.Zero(t, doc.Annotations().Size())
			assert.Empty(t, doc.SetNames())
		})
	}
}

func TestStore_List(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.name, b.file)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, sampleDoc()))
			require.NoError(t, store.Save(ctx, annotation.NewDocument("empty.txt", "")))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)

			assert.Equal(t, "cats.txt", list[0].Name)
			assert.Equal(t, []string{"", "markup"}, list[0].Sets)
			assert.Equal(t, 4, list[0].Annotations)
			assert.False(t, list[0].UpdatedAt.IsZero())

			assert.Equal(t, "empty.txt", list[1].Name)
			assert.Empty(t, list[1].Sets)
			assert.Zero(t, list[1].Annotations)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.name, b.file)
			ctx := context.Background()

			_, err := store.Load(ctx, "missing")
			assert.True(t, errors.Is(err, stemerrors.ErrDocumentNotFound))

			err = store.Delete(ctx, "missing")
			assert.True(t, errors.Is(err, stemerrors.ErrDocumentNotFound))
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.name, b.file)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, sampleDoc()))
			require.NoError(t, store.Delete(ctx, "cats.txt"))

			_, err := store.Load(ctx, "cats.txt")
			assert.True(t, errors.Is(err, stemerrors.ErrDocumentNotFound))

			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			ctx := context.Background()

			store, err := storage.Open(b.name, path)
			require.NoError(t, err)
			require.NoError(t, store.Save(ctx, sampleDoc()))
			require.NoError(t, store.Close())

			store, err = storage.Open(b.name, path)
			require.NoError(t, err)
			defer store.Close()

			doc, err := store.Load(ctx, "cats.txt")
			require.NoError(t, err)
			assert.Len(t, doc.Annotations().Get("Token"), 2)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := storage.Open("postgres", filepath.Join(t.TempDir(), "x.db"))

	assert.True(t, errors.Is(err, stemerrors.ErrConfigInvalid))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := storage.Open(storage.BackendSQLite, "")

	assert.True(t, errors.Is(err, stemerrors.ErrConfigInvalid))
}

func TestBoltStore_CancelledContext(t *testing.T) {
	store := openStore(t, storage.BackendBolt, "docs.bolt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, sampleDoc())

	assert.True(t, errors.Is(err, stemerrors.ErrCancelled))
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")

	unlock, err := storage.Lock(path)
	require.NoError(t, err)

	_, ok, err := storage.TryLock(path)
	require.NoError(t, err)
	assert.False(t, ok, "lock should be held")

	unlock()
	unlock()

	release, ok, err := storage.TryLock(path)
	require.NoError(t, err)
	require.True(t, ok)
	release()
}
