package annotation

import "sort"

// Store is the narrow view of a document the stemming pass needs.
type Store interface {
	// Name identifies the document in status messages and errors.
	Name() string
	// Set returns the default set for an empty name, otherwise the named set
	// if it exists.
	Set(name string) (*AnnotationSet, bool)
}

// Document owns a default annotation set and any number of named sets.
type Document struct {
	name    string
	content string
	def     *AnnotationSet
	named   map[string]*AnnotationSet
}

func NewDocument(name, content string) *Document {
	return &Document{
		name:    name,
		content: content,
		def:     NewAnnotationSet(""),
		named:   make(map[string]*AnnotationSet),
	}
}

func (d *Document) Name() string {
	return d.name
}

func (d *Document) Content() string {
	return d.content
}

// Annotations returns the default set.
func (d *Document) Annotations() *AnnotationSet {
	return d.def
}

// Set implements Store.
func (d *Document) Set(name string) (*AnnotationSet, bool) {
	if name == "" {
		return d.def, true
	}
	s, ok := d.named[name]
	return s, ok
}

// NamedAnnotations returns the named set, creating it when absent. An empty
// name returns the default set.
func (d *Document) NamedAnnotations(name string) *AnnotationSet {
	if name == "" {
		return d.def
	}
	s, ok := d.named[name]
	if !ok {
		s = NewAnnotationSet(name)
		d.named[name] = s
	}
	return s
}

// SetNames returns the names of the named sets, sorted. The default set is
// not included.
func (d *Document) SetNames() []string {
	names := make([]string, 0, len(d.named))
	for name := range d.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text returns the content covered by an annotation, or "" when its offsets
// fall outside the document.
func (d *Document) Text(a *Annotation) string {
	if a.Start < 0 || a.End > len(d.content) || a.Start > a.End {
		return ""
	}
	return d.content[a.Start:a.End]
}
