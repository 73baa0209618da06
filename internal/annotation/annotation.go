// Package annotation holds the in-memory document model the stemmer works on:
// documents own annotation sets, sets own annotations, and every annotation
// carries a loosely typed feature map.
//
// Nothing here is safe for concurrent mutation. A pass assumes exclusive
// access to the set it processes.
package annotation

import (
	"fmt"
	"sort"
)

// FeatureMap maps feature names to loosely typed values.
type FeatureMap map[string]any

// GetString returns the feature as a string. Non-string values are rendered
// with fmt.Sprint; a missing key or a nil value reports false.
func (f FeatureMap) GetString(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Annotation is a typed record over a span of document content.
type Annotation struct {
	ID       int        `json:"id"`
	Type     string     `json:"type"`
	Start    int        `json:"start"`
	End      int        `json:"end"`
	Features FeatureMap `json:"features"`
}

// AnnotationSet is an ordered collection of annotations. Iteration order is
// insertion order, which for annotations produced by the tokenizer is also
// document order.
type AnnotationSet struct {
	name   string
	items  []*Annotation
	nextID int
}

// NewAnnotationSet creates an empty set. An empty name denotes the default set.
func NewAnnotationSet(name string) *AnnotationSet {
	return &AnnotationSet{name: name}
}

func (s *AnnotationSet) Name() string {
	return s.name
}

// Add appends a new annotation and returns it. A nil feature map is replaced
// with an empty one.
func (s *AnnotationSet) Add(annType string, start, end int, features FeatureMap) *Annotation {
	if features == nil {
		features = FeatureMap{}
	}
	a := &Annotation{
		ID:       s.nextID,
		Type:     annType,
		Start:    start,
		End:      end,
		Features: features,
	}
	s.nextID++
	s.items = append(s.items, a)
	return a
}

// Restore appends an annotation with a caller-supplied ID, as read back from
// storage. Later Add calls continue after the highest ID seen.
func (s *AnnotationSet) Restore(a *Annotation) {
	if a.Features == nil {
		a.Features = FeatureMap{}
	}
	s.items = append(s.items, a)
	if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
}

// Get returns the annotations of the given type in set order. The returned
// slice is a snapshot; the annotations themselves are shared.
func (s *AnnotationSet) Get(annType string) []*Annotation {
	var out []*Annotation
	for _, a := range s.items {
		if a.Type == annType {
			out = append(out, a)
		}
	}
	return out
}

// All returns every annotation in set order.
func (s *AnnotationSet) All() []*Annotation {
	out := make([]*Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// ByID looks up a single annotation.
func (s *AnnotationSet) ByID(id int) (*Annotation, bool) {
	for _, a := range s.items {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (s *AnnotationSet) Size() int {
	return len(s.items)
}

// Types returns the distinct annotation types in the set, sorted.
func (s *AnnotationSet) Types() []string {
	seen := make(map[string]bool)
	for _, a := range s.items {
		seen[a.Type] = true
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
