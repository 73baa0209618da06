// Package storage persists annotated documents between runs. Two backends
// share one Store interface: sqlite keeps one row per annotation, bolt keeps
// one JSON snapshot per document.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Store saves and loads whole documents, annotation sets included. Saving a
// document replaces any stored document of the same name.
type Store interface {
	Save(ctx context.Context, doc *annotation.Document) error
	Load(ctx context.Context, name string) (*annotation.Document, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Summary describes a stored document without its content. Sets lists the
// sets that hold at least one annotation; the default set appears as "".
type Summary struct {
	Name        string    `json:"name"`
	Sets        []string  `json:"sets"`
	Annotations int       `json:"annotations"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Open opens or creates the store at path. An empty backend selects sqlite.
func Open(backend, path string) (Store, error) {
	if path == "" {
		return nil, stemerrors.ConfigError("storage path is empty", nil)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, stemerrors.StorageError("failed to create storage directory", err).
				WithDetail("path", dir)
		}
	}

	switch backend {
	case "", BackendSQLite:
		return NewSQLiteStore(path)
	case BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, stemerrors.ConfigError(fmt.Sprintf("unknown storage backend %q", backend), nil).
			WithDetail("backend", backend).
			WithSuggestion("use 'sqlite' or 'bolt'")
	}
}

// record is the serialised form of a document. The default set is stored
// under the empty name.
type record struct {
	Name      string      `json:"name"`
	Content   string      `json:"content"`
	Sets      []setRecord `json:"sets"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type setRecord struct {
	Name        string                   `json:"name"`
	Annotations []*annotation.Annotation `json:"annotations"`
}

func toRecord(doc *annotation.Document) record {
	rec := record{
		Name:      doc.Name(),
		Content:   doc.Content(),
		UpdatedAt: time.Now().UTC(),
	}
	rec.Sets = append(rec.Sets, setRecord{Name: "", Annotations: doc.Annotations().All()})
	for _, name := range doc.SetNames() {
		set, _ := doc.Set(name)
		rec.Sets = append(rec.Sets, setRecord{Name: name, Annotations: set.All()})
	}
	return rec
}

func (r record) document() *annotation.Document {
	doc := annotation.NewDocument(r.Name, r.Content)
	for _, s := range r.Sets {
		set := doc.NamedAnnotations(s.Name)
		for _, a := range s.Annotations {
			set.Restore(a)
		}
	}
	return doc
}

func (r record) summary() Summary {
	sum := Summary{Name: r.Name, UpdatedAt: r.UpdatedAt}
	for _, s := range r.Sets {
		if len(s.Annotations) > 0 {
			sum.Sets = append(sum.Sets, s.Name)
		}
		sum.Annotations += len(s.Annotations)
	}
	return sum
}

func encodeFeatures(f annotation.FeatureMap) ([]byte, error) {
	if f == nil {
		f = annotation.FeatureMap{}
	}
	return json.Marshal(f)
}

// decodeFeatures reads a feature map back, turning integral JSON numbers into
// int so values written by the tokenizer survive a round trip unchanged.
func decodeFeatures(data []byte) (annotation.FeatureMap, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	f := make(annotation.FeatureMap, len(raw))
	for k, v := range raw {
		f[k] = normalizeNumber(v)
	}
	return f, nil
}

func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func decodeRecord(data []byte) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec record
	if err := dec.Decode(&rec); err != nil {
		return rec, err
	}
	for _, s := range rec.Sets {
		for _, a := range s.Annotations {
			for k, v := range a.Features {
				a.Features[k] = normalizeNumber(v)
			}
		}
	}
	return rec, nil
}
