package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

var (
	bucketDocs    = []byte("docs")
	bucketSummary = []byte("summaries")
)

// BoltStore keeps one JSON snapshot per document plus a small summary entry
// so List never decodes full documents.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, stemerrors.StorageError("failed to open bolt db", err).WithDetail("path", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketSummary} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, stemerrors.StorageError("failed to initialise buckets", err).WithDetail("path", path)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(ctx context.Context, doc *annotation.Document) error {
	if err := ctx.Err(); err != nil {
		return stemerrors.New(stemerrors.ErrCodeCancelled, "storage operation cancelled", err)
	}

	rec := toRecord(doc)
	data, err := json.Marshal(rec)
	if err != nil {
		return stemerrors.StorageError(fmt.Sprintf("failed to encode document %q", rec.Name), err)
	}
	sumData, err := json.Marshal(rec.summary())
	if err != nil {
		return stemerrors.StorageError(fmt.Sprintf("failed to encode summary of %q", rec.Name), err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocs).Put([]byte(rec.Name), data); err != nil {
			return err
		}
		return tx.Bucket(bucketSummary).Put([]byte(rec.Name), sumData)
	})
	if err != nil {
		return stemerrors.StorageError(fmt.Sprintf("failed to save document %q", rec.Name), err).
			WithDetail("document", rec.Name)
	}
	return nil
}

func (s *BoltStore) Load(ctx context.Context, name string) (*annotation.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, stemerrors.New(stemerrors.ErrCodeCancelled, "storage operation cancelled", err)
	}

	var rec record
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(name))
		if data == nil {
			return nil
		}
		found = true
		var err error
		rec, err = decodeRecord(data)
		return err
	})
	if err != nil {
		return nil, stemerrors.StorageError(fmt.Sprintf("failed to load document %q", name), err)
	}
	if !found {
		return nil, stemerrors.DocumentNotFound(name)
	}
	return rec.document(), nil
}

func (s *BoltStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, stemerrors.New(stemerrors.ErrCodeCancelled, "storage operation cancelled", err)
	}

	var out []Summary
	err := s.db.View(func(tx *bbolt.Tx) error {
		// bolt iterates keys in byte order, so the result is sorted by name
		return tx.Bucket(bucketSummary).ForEach(func(k, v []byte) error {
			var sum Summary
			if err := json.Unmarshal(v, &sum); err != nil {
				return fmt.Errorf("corrupt summary for %s: %w", k, err)
			}
			out = append(out, sum)
			return nil
		})
	})
	if err != nil {
		return nil, stemerrors.StorageError("failed to list documents", err)
	}
	return out, nil
}

func (s *BoltStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return stemerrors.New(stemerrors.ErrCodeCancelled, "storage operation cancelled", err)
	}

	found := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		if docs.Get([]byte(name)) == nil {
			return nil
		}
		found = true
		if err := docs.Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketSummary).Delete([]byte(name))
	})
	if err != nil {
		return stemerrors.StorageError(fmt.Sprintf("failed to delete document %q", name), err)
	}
	if !found {
		return stemerrors.DocumentNotFound(name)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
